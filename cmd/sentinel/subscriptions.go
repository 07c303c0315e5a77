package main

import (
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/cli"
	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/spf13/cobra"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "List and manage subscriptions",
		RunE:    runSubscriptionsList,
	}

	for _, action := range []approval.SubscriptionAction{
		approval.SubscriptionCancel,
		approval.SubscriptionPause,
		approval.SubscriptionResume,
	} {
		sub := &cobra.Command{
			Use:   string(action) + " <id>",
			Short: fmt.Sprintf("%s a subscription", subscriptionVerb(action)),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSubscriptionAction(cmd, args[0], action)
			},
		}
		sub.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
		cmd.AddCommand(sub)
	}

	return cmd
}

func subscriptionVerb(action approval.SubscriptionAction) string {
	switch action {
	case approval.SubscriptionCancel:
		return "Cancel"
	case approval.SubscriptionPause:
		return "Pause"
	default:
		return "Resume"
	}
}

func runSubscriptionsList(cmd *cobra.Command, _ []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	subs, err := store.GetSubscriptions(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSubscriptions(subs, appCfg.Currency))
	return nil
}

func runSubscriptionAction(cmd *cobra.Command, ref string, action approval.SubscriptionAction) error {
	ctx := cmd.Context()
	yes, _ := cmd.Flags().GetBool("yes")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	subs, err := store.GetSubscriptions(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	id, err := matchID("subscription", ref, ids)
	if err != nil {
		return err
	}

	if !yes {
		current, err := store.GetSubscription(ctx, id)
		if err != nil {
			return err
		}
		question := fmt.Sprintf("%s %s (%s%.2f/%s)?", subscriptionVerb(action), current.Merchant,
			appCfg.Currency, current.CurrentAmount, cycleUnit(current.BillingCycle))
		ok, err := cli.NewLineReader(cmd.InOrStdin()).Confirm(ctx, cmd.OutOrStdout(), question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing changed."))
			return nil
		}
	}

	updated, err := approval.New(store).UpdateSubscription(ctx, id, action)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Could not %s subscription", action), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", updated.Merchant, updated.Status)))
	return nil
}
