package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/config"
	"github.com/Veraticus/subscription-sentinel/internal/llm"
	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/Veraticus/subscription-sentinel/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(appCfg.Database.Path)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// app bundles the collaborators most commands need.
type app struct {
	store     *storage.SQLiteStorage
	pipeline  *pipeline.Pipeline
	approvals *approval.Service
	registry  *prometheus.Registry
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// newApp opens storage and assembles the pipeline. Extra options are applied after the
// defaults.
func newApp(ctx context.Context, opts ...pipeline.Option) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	explainer, err := newExplainer(appCfg, metrics)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithMetrics(metrics),
		pipeline.WithCurrency(appCfg.Currency),
		pipeline.WithExplainer(explainer),
		pipeline.WithLogger(slog.Default()),
	}

	return &app{
		store:     store,
		pipeline:  pipeline.New(store, append(pipelineOpts, opts...)...),
		approvals: approval.New(store),
		registry:  registry,
	}, nil
}

// newExplainer returns the template explainer, wrapped by the generative one when a
// text generator is configured.
func newExplainer(cfg config.Config, metrics *pipeline.Metrics) (pipeline.Explainer, error) {
	template := pipeline.NewTemplateExplainer(cfg.Currency)
	if !cfg.LLM.Enabled() {
		slog.Debug("No text generator configured, using template explanations")
		return template, nil
	}

	client, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		RateLimit:   cfg.LLM.RateLimit,
		MaxRetries:  cfg.LLM.MaxRetries,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}

	slog.Info("Using generated explanations", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return pipeline.NewGenerativeExplainer(client, template,
		pipeline.WithGenerationTimeout(cfg.LLM.Timeout),
		pipeline.WithFallbackMetrics(metrics),
		pipeline.WithExplainerLogger(slog.Default()),
	), nil
}
