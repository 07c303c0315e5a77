package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/api"
	"github.com/Veraticus/subscription-sentinel/internal/billing"
	"github.com/Veraticus/subscription-sentinel/internal/scheduler"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the pipeline on a schedule",
		Long: `Start the HTTP API. Pipeline runs are triggered by API calls and, unless
disabled, by the schedule in schedule.pipeline (default "@every 1h").

Examples:
  sentinel serve
  sentinel serve --addr 127.0.0.1:9000 --schedule "@every 15m"
  sentinel serve --schedule ""`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().String("schedule", "", "cron schedule for pipeline runs (overrides schedule.pipeline; empty string disables)")
	cmd.Flags().Bool("seed", false, "populate demo data when the database is empty")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addr := appCfg.Server.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}
	schedule := appCfg.Schedule.Pipeline
	if cmd.Flags().Changed("schedule") {
		schedule, _ = cmd.Flags().GetString("schedule")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if seed, _ := cmd.Flags().GetBool("seed"); seed {
		if _, err := a.store.Seed(ctx, time.Now()); err != nil {
			return err
		}
	}

	if schedule != "" {
		sched, err := scheduler.New(schedule, a.pipeline, slog.Default())
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	} else {
		slog.Info("Scheduled pipeline runs disabled")
	}

	server := api.NewServer(api.Deps{
		Store:     a.store,
		Runner:    a.pipeline,
		Approvals: a.approvals,
		Billing:   billing.NewSimulator(a.store, a.pipeline),
		Gatherer:  a.registry,
		Logger:    slog.Default(),
	})

	return server.ListenAndServe(ctx, addr, appCfg.Server.ReadTimeout, appCfg.Server.WriteTimeout)
}
