package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/cli"
	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/service"
	"github.com/Veraticus/subscription-sentinel/internal/tui"
	"github.com/Veraticus/subscription-sentinel/internal/tui/themes"
	"github.com/spf13/cobra"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List and act on alerts",
		Long: `List alerts raised by the pipeline. Alerts stay pending until you keep or
cancel the subscription (resolve) or dismiss them. A dismissed alert is not raised
again for the same merchant and finding.`,
		RunE: runAlertsList,
	}
	cmd.Flags().String("status", string(model.AlertPending), "filter by status (pending, resolved, dismissed, all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one alert with its explanation",
		Args:  cobra.ExactArgs(1),
		RunE:  runAlertShow,
	}

	resolve := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an alert by keeping or cancelling its subscription",
		Example: `  sentinel alerts resolve 3f2a9c1e --action keep
  sentinel alerts resolve 3f2a9c1e --action cancel`,
		Args: cobra.ExactArgs(1),
		RunE: runAlertResolve,
	}
	resolve.Flags().String("action", string(approval.ActionKeep), "keep or cancel")

	dismiss := &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss an alert without changing its subscription",
		Args:  cobra.ExactArgs(1),
		RunE:  runAlertDismiss,
	}

	review := &cobra.Command{
		Use:   "review",
		Short: "Review pending alerts interactively",
		RunE:  runAlertReview,
	}
	review.Flags().String("theme", "default", "color theme (default, catppuccin)")

	cmd.AddCommand(show, resolve, dismiss, review)
	return cmd
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetString("status")
	if status != "all" && !model.AlertStatus(status).Valid() {
		return common.NewUserError(fmt.Sprintf("Unknown status %q", status), nil)
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	alerts, err := store.GetAlerts(cmd.Context())
	if err != nil {
		return err
	}
	if status != "all" {
		alerts = slices.DeleteFunc(alerts, func(a model.Alert) bool {
			return a.Status != model.AlertStatus(status)
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAlerts(alerts, appCfg.Currency))
	return nil
}

// alertID expands an alert id prefix as shown by "sentinel alerts".
func alertID(ctx context.Context, store service.AlertStore, ref string) (string, error) {
	alerts, err := store.GetAlerts(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.ID)
	}
	return matchID("alert", ref, ids)
}

func runAlertShow(cmd *cobra.Command, args []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := alertID(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	alert, err := store.GetAlert(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAlertDetail(alert, appCfg.Currency))
	return nil
}

func runAlertResolve(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("action")
	action, err := approval.ParseAction(raw)
	if err != nil {
		return common.NewUserError("Invalid action", err)
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := alertID(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	res, err := approval.New(store).Resolve(cmd.Context(), id, action)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Subscription != nil {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Cancelled %s. Auto-pay is off.", res.Merchant)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Alert resolved, keeping %s.", res.Merchant)))
	return nil
}

func runAlertDismiss(cmd *cobra.Command, args []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := alertID(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	alert, err := approval.New(store).Dismiss(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Dismissed: "+alert.Title))
	return nil
}

func runAlertReview(cmd *cobra.Command, _ []string) error {
	theme, _ := cmd.Flags().GetString("theme")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reviewed, err := tui.Run(cmd.Context(), tui.Config{
		Alerts:   store,
		Reviewer: approval.New(store),
		Theme:    themes.ByName(theme),
		Currency: appCfg.Currency,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Reviewed %d alerts", reviewed)))
	return nil
}
