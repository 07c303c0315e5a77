package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/cli"
	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring pipeline once",
		Long: `Run observation, anomaly detection, risk prediction, explanation and
recommendation once against the stored subscriptions. New findings are saved as
pending alerts; findings that already have an alert are not duplicated.`,
		RunE: runPipeline,
	}

	cmd.Flags().Bool("json", false, "print the run result as JSON")
	cmd.Flags().Bool("no-progress", false, "do not draw the progress bar")

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	ctx := cmd.Context()
	notice := cli.WatchInterrupt(ctx, cmd.ErrOrStderr(), "Pipeline run interrupted!",
		"Alerts created before the interruption were saved.",
		"Run again with: sentinel run")
	defer notice.Stop()

	var opts []pipeline.Option
	var progress *cli.StageProgress
	if !asJSON && !noProgress {
		progress = cli.NewStageProgress(cmd.ErrOrStderr())
		opts = append(opts, pipeline.WithObserver(progress))
	}

	a, err := newApp(ctx, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	result, runErr := a.pipeline.Run(ctx)
	if progress != nil {
		progress.Finish()
	}
	if result == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		fmt.Fprintln(out, cli.RenderResult(result, appCfg.Currency))
	}

	return runErr
}
