package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Veraticus/subscription-sentinel/internal/billing"
	"github.com/Veraticus/subscription-sentinel/internal/cli"
	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate billing events and analyze the result",
		Long: `Simulate an auto-pay charge on a random active subscription. About one charge
in three comes with a price increase. The pipeline runs right after the charge.`,
		RunE: runSimulateAutoPay,
	}

	checkout := &cobra.Command{
		Use:   "checkout <merchant> <amount>",
		Short: "Sign up for a new subscription and analyze the result",
		Example: `  sentinel simulate checkout "Disney+ Hotstar" 299
  sentinel simulate checkout "Notion" 8000 --cycle yearly --category Productivity`,
		Args: cobra.ExactArgs(2),
		RunE: runCheckout,
	}
	checkout.Flags().String("cycle", string(model.CycleMonthly), "billing cycle (monthly, yearly)")
	checkout.Flags().String("category", "", "category (default Other)")

	cmd.AddCommand(checkout)
	return cmd
}

func runSimulateAutoPay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sim, runErr := billing.NewSimulator(a.store, a.pipeline).SimulateAutoPay(ctx)
	if errors.Is(runErr, billing.ErrNoEligibleSubscription) {
		return common.NewUserError("No active auto-pay subscription to charge", runErr)
	}
	if sim == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s: charged %s%s", sim.Message,
		appCfg.Currency, money.Format(sim.Transaction.Amount))))
	if sim.Result != nil {
		fmt.Fprintln(out, cli.RenderResult(sim.Result, appCfg.Currency))
	}
	return runErr
}

func runCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Invalid amount %q", args[1]), err)
	}
	cycle, _ := cmd.Flags().GetString("cycle")
	category, _ := cmd.Flags().GetString("category")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, runErr := billing.NewSimulator(a.store, a.pipeline).Checkout(ctx, billing.CheckoutRequest{
		Merchant:     args[0],
		Category:     category,
		BillingCycle: model.BillingCycle(cycle),
		Amount:       amount,
	})
	if errors.Is(runErr, billing.ErrInvalidCheckout) {
		return common.NewUserError("Checkout rejected", runErr)
	}
	if res == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Subscribed to %s for %s%s/%s",
		res.Subscription.Merchant, appCfg.Currency, money.Format(res.Subscription.CurrentAmount), cycleUnit(res.Subscription.BillingCycle))))
	if res.Result != nil {
		fmt.Fprintln(out, cli.RenderResult(res.Result, appCfg.Currency))
	}
	return runErr
}

func cycleUnit(c model.BillingCycle) string {
	if c == model.CycleYearly {
		return "year"
	}
	return "month"
}
