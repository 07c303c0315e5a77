// Package pipeline implements the five-stage subscription analysis pipeline:
// observation, anomaly detection, risk scoring, explanation and recommendation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/Veraticus/subscription-sentinel/internal/service"
)

// Stage names used as metric labels.
const (
	StageMonitoring     = "monitoring"
	StageAnomaly        = "anomaly"
	StageRisk           = "risk"
	StageReasoning      = "reasoning"
	StageRecommendation = "recommendation"
)

const totalSteps = 5

// Result is what a run reports to its trigger.
type Result struct {
	Recommendations       []model.Recommendation `json:"recommendations"`
	ExecutionLog          []string               `json:"executionLog"`
	Error                 string                 `json:"error,omitempty"`
	NewAlerts             int                    `json:"newAlerts"`
	TotalPotentialSavings float64                `json:"totalPotentialSavings"`
	Success               bool                   `json:"success"`
}

// Runner runs the pipeline once. *Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

var _ Runner = (*Pipeline)(nil)

// StageObserver is notified as stages start and finish. Skipped stages are not reported.
type StageObserver interface {
	StageStarted(agent string, step, total int)
	StageFinished(agent string, outputs int, err error)
}

// Pipeline runs the analysis stages against a store. Runs are serialized.
type Pipeline struct {
	store     service.PipelineStore
	explainer Explainer
	observer  StageObserver
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
	currency  string
	mu        sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the time source used for day arithmetic and timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithExplainer replaces the template explainer.
func WithExplainer(e Explainer) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.explainer = e
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records run metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithObserver reports stage progress to o.
func WithObserver(o StageObserver) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithCurrency sets the currency symbol used in the execution log and default templates.
func WithCurrency(symbol string) Option {
	return func(p *Pipeline) {
		if symbol != "" {
			p.currency = symbol
		}
	}
}

// New creates a pipeline over store. Without WithExplainer it explains with templates.
func New(store service.PipelineStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
		currency: DefaultCurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.explainer == nil {
		p.explainer = NewTemplateExplainer(p.currency)
	}
	return p
}

// run is the per-invocation state.
type run struct {
	rc     *RunContext
	result *Result
	logger *slog.Logger
}

func (r *run) log(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.result.ExecutionLog = append(r.result.ExecutionLog, msg)
	r.logger.Info(strings.TrimSpace(msg))
}

// Run executes one pass of the pipeline. The returned result is never nil. When a
// stage fails the result has Success false, no recommendations and the log gathered so
// far; alerts persisted before the failure are kept.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rc := &RunContext{Now: p.now(), Store: p.store}
	r := &run{
		rc:     rc,
		result: &Result{Recommendations: []model.Recommendation{}, ExecutionLog: []string{}},
		logger: p.logger.With("run_at", rc.Now.Format(time.RFC3339)),
	}

	r.log("Starting subscription analysis pipeline")
	r.log("Flow: Store -> Monitor -> Detect -> Predict -> Explain -> Recommend -> User")

	anomalies, err := p.execute(ctx, r)
	if err != nil {
		r.log("ERROR: %v", err)
		r.result.Success = false
		r.result.Recommendations = []model.Recommendation{}
		r.result.NewAlerts = 0
		r.result.TotalPotentialSavings = 0
		r.result.Error = err.Error()
		p.metrics.runFinished(false)
		p.audit(ctx, r, fmt.Sprintf("Pipeline run failed: %v", err))
		return r.result, err
	}

	r.result.Success = true
	p.metrics.runFinished(true)
	p.audit(ctx, r, fmt.Sprintf("Pipeline run completed: %d anomalies, %d new alerts, potential savings %s%s/year",
		anomalies, r.result.NewAlerts, p.currency, money.Format(r.result.TotalPotentialSavings)))
	return r.result, nil
}

// execute walks the stages and returns the number of anomalies detected.
func (p *Pipeline) execute(ctx context.Context, r *run) (int, error) {
	rc := r.rc

	r.log("[Step 1/%d] Fetching data from store...", totalSteps)
	subs, err := rc.Store.GetSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	txns, err := rc.Store.GetTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	r.log("[Step 1/%d] Loaded %d subscriptions, %d transactions", totalSteps, len(subs), len(txns))

	var obs Observation
	r.log("[Step 2/%d] Running %s...", totalSteps, model.AgentMonitoring)
	if err := p.stage(ctx, r, model.AgentMonitoring, StageMonitoring, 2, func() (int, error) {
		obs = Observe(rc.Now, subs, txns)
		r.log("[%s] Found %d price changes, %d unused, %d upcoming renewals", model.AgentMonitoring,
			len(obs.Patterns.PriceChanges), len(obs.Patterns.Unused), len(obs.Patterns.Renewals))
		return len(subs), nil
	}); err != nil {
		return 0, err
	}

	var anomalies []model.Anomaly
	r.log("[Step 3/%d] Running %s...", totalSteps, model.AgentAnomaly)
	if err := p.stage(ctx, r, model.AgentAnomaly, StageAnomaly, 3, func() (int, error) {
		anomalies = Detect(obs)
		p.metrics.anomaliesDetected(anomalies)
		r.log("[%s] Total anomalies detected: %d", model.AgentAnomaly, len(anomalies))
		return len(anomalies), nil
	}); err != nil {
		return 0, err
	}

	if len(anomalies) == 0 {
		r.log("No anomalies detected. Pipeline complete.")
		return 0, nil
	}

	var assessments []model.RiskAssessment
	r.log("[Step 4/%d] Running %s...", totalSteps, model.AgentRisk)
	if err := p.stage(ctx, r, model.AgentRisk, StageRisk, 4, func() (int, error) {
		assessments = Assess(anomalies)
		return len(assessments), nil
	}); err != nil {
		return len(anomalies), err
	}

	var reasoned []model.ReasonedAlert
	r.log("[Step 5/%d] Running %s and %s...", totalSteps, model.AgentReasoning, model.AgentRecommendation)
	if err := p.stage(ctx, r, model.AgentReasoning, StageReasoning, 5, func() (int, error) {
		reasoned = ExplainAll(ctx, p.explainer, assessments)
		return len(reasoned), nil
	}); err != nil {
		return len(anomalies), err
	}

	var recs []model.Recommendation
	if err := p.stage(ctx, r, model.AgentRecommendation, StageRecommendation, 5, func() (int, error) {
		recs = Recommend(rc.Now, reasoned)
		created, persistErr := p.persist(ctx, r, recs)
		r.result.NewAlerts = created
		if persistErr != nil {
			return len(recs), persistErr
		}
		return len(recs), nil
	}); err != nil {
		return len(anomalies), err
	}

	var savings float64
	for _, rec := range recs {
		savings += rec.Alert.FinancialImpact.Yearly
	}
	r.result.Recommendations = recs
	r.result.TotalPotentialSavings = savings

	r.log("Pipeline complete")
	r.log("New alerts: %d", r.result.NewAlerts)
	r.log("Total potential savings: %s%s/year", p.currency, money.Format(savings))
	r.log("All recommendations await user approval")
	return len(anomalies), nil
}

// stage runs fn between status updates. fn returns the number of outputs it produced,
// which is added to the stage's observation counter.
func (p *Pipeline) stage(ctx context.Context, r *run, agent, label string, step int, fn func() (int, error)) error {
	processing := model.AgentProcessing
	startedAt := p.now()
	p.setStatus(ctx, agent, model.AgentStatusUpdate{Status: &processing, LastRun: &startedAt})
	if p.observer != nil {
		p.observer.StageStarted(agent, step, totalSteps)
	}

	start := time.Now()
	outputs, err := fn()
	p.metrics.stageFinished(label, time.Since(start))

	if p.observer != nil {
		p.observer.StageFinished(agent, outputs, err)
	}
	if err != nil {
		r.logger.Error("Stage failed", "stage", agent, "error", err)
		return fmt.Errorf("%s: %w", agent, err)
	}

	active := model.AgentActive
	p.setStatus(ctx, agent, model.AgentStatusUpdate{Status: &active, ObservationsAdded: outputs})
	r.logger.Debug("Stage finished", "stage", agent, "outputs", outputs, "duration", time.Since(start))
	return nil
}

// setStatus records stage liveness. Failures only affect observability and are logged.
func (p *Pipeline) setStatus(ctx context.Context, agent string, update model.AgentStatusUpdate) {
	if _, err := p.store.UpdateAgentStatus(ctx, agent, update); err != nil {
		p.logger.Warn("Failed to update agent status", "stage", agent, "error", err)
	}
}

// persist creates an alert for every recommendation whose (merchant, type) pair has no
// alert yet, in any status, and returns how many were created.
func (p *Pipeline) persist(ctx context.Context, r *run, recs []model.Recommendation) (int, error) {
	existing, err := r.rc.Store.GetAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch existing alerts: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[existing[i].DedupKey()] = true
	}

	created := 0
	for i := range recs {
		alert := &recs[i].Alert
		key := alert.DedupKey()
		if seen[key] {
			continue
		}

		if err := r.rc.Store.CreateAlert(ctx, alert); err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				seen[key] = true
				continue
			}
			return created, fmt.Errorf("failed to create alert for %s: %w", alert.Merchant, err)
		}
		seen[key] = true
		created++
		p.metrics.alertCreated()
		r.log("Created new alert for %s", alert.Merchant)

		if err := r.rc.Store.CreateAuditLog(ctx, &model.AuditLog{
			Timestamp:  r.rc.Now,
			Action:     model.AuditAlertCreated,
			EntityType: model.EntityAlert,
			EntityID:   alert.ID,
			Details:    alert.Title,
		}); err != nil {
			p.logger.Warn("Failed to write audit log", "alert_id", alert.ID, "error", err)
		}
	}
	return created, nil
}

func (p *Pipeline) audit(ctx context.Context, r *run, details string) {
	err := p.store.CreateAuditLog(ctx, &model.AuditLog{
		Timestamp:  r.rc.Now,
		Action:     model.AuditAgentRun,
		EntityType: model.EntityAgent,
		EntityID:   "pipeline",
		Details:    details,
	})
	if err != nil {
		p.logger.Warn("Failed to write audit log", "action", model.AuditAgentRun, "error", err)
	}
}
