package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/cli"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate an empty database with demo subscriptions",
		Long: `Insert a realistic set of demo subscriptions and payments: a recent price
increase, services nobody has opened in months, a trial that converted, overlapping
streaming and storage plans, and a yearly plan that renews in a few days.

Nothing happens when the database already holds subscriptions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			seeded, err := store.Seed(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !seeded {
				fmt.Fprintln(out, cli.FormatInfo("Database already has subscriptions, nothing seeded."))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess("Demo data seeded. Try: sentinel run"))
			return nil
		},
	}
}
