package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

const day = 24 * time.Hour

type seedSubscription struct {
	previous        *float64
	merchant        string
	category        string
	cycle           model.BillingCycle
	status          model.SubscriptionStatus
	amount          float64
	lastUsedDaysAgo int
	nextBillingIn   int
}

func amount(v float64) *float64 { return &v }

var demoSubscriptions = []seedSubscription{
	{merchant: "Netflix", amount: 649, previous: amount(499), cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 2, nextBillingIn: 15, category: "Entertainment"},
	{merchant: "Spotify", amount: 119, cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 0, nextBillingIn: 22, category: "Entertainment"},
	{merchant: "Amazon Prime", amount: 1499, cycle: model.CycleYearly, status: model.SubscriptionActive, lastUsedDaysAgo: 5, nextBillingIn: 5, category: "Shopping"},
	{merchant: "YouTube Premium", amount: 129, cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 45, nextBillingIn: 8, category: "Entertainment"},
	{merchant: "Adobe Creative", amount: 4999, previous: amount(3999), cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 90, nextBillingIn: 5, category: "Productivity"},
	{merchant: "Dropbox", amount: 999, cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 60, nextBillingIn: 12, category: "Storage"},
	{merchant: "LinkedIn", amount: 2499, cycle: model.CycleMonthly, status: model.SubscriptionPaused, lastUsedDaysAgo: 120, nextBillingIn: 30, category: "Professional"},
	{merchant: "Notion", amount: 800, cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 0, nextBillingIn: 18, category: "Productivity"},
	{merchant: "Fitness First", amount: 2999, cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 35, nextBillingIn: 10, category: "Fitness"},
	{merchant: "Google One", amount: 130, cycle: model.CycleMonthly, status: model.SubscriptionActive, lastUsedDaysAgo: 10, nextBillingIn: 20, category: "Storage"},
}

var demoTransactions = []struct {
	merchant string
	category string
	amount   float64
	daysAgo  int
}{
	{merchant: "Netflix", amount: 649, daysAgo: 1, category: "Entertainment"},
	{merchant: "Spotify", amount: 119, daysAgo: 3, category: "Entertainment"},
	{merchant: "Amazon Prime", amount: 1499, daysAgo: 5, category: "Shopping"},
	{merchant: "Adobe Creative", amount: 4999, daysAgo: 7, category: "Productivity"},
	{merchant: "Fitness First", amount: 2999, daysAgo: 10, category: "Fitness"},
}

// Seed loads a demo data set relative to now. It does nothing if any subscription
// already exists, and reports whether data was written.
func (s *SQLiteStorage) Seed(ctx context.Context, now time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	existing, err := countRows(ctx, s.db, "subscriptions")
	if err != nil {
		return false, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if existing > 0 {
		slog.Debug("Skipping seed, subscriptions already present", "count", existing)
		return false, nil
	}

	idsByMerchant := make(map[string]string, len(demoSubscriptions))
	for _, seed := range demoSubscriptions {
		lastUsed := now.Add(-time.Duration(seed.lastUsedDaysAgo) * day)
		sub := &model.Subscription{
			Merchant:        seed.merchant,
			CurrentAmount:   seed.amount,
			PreviousAmount:  seed.previous,
			BillingCycle:    seed.cycle,
			Status:          seed.status,
			LastUsedDate:    &lastUsed,
			NextBillingDate: now.Add(time.Duration(seed.nextBillingIn) * day),
			Category:        seed.category,
			AutoPayEnabled:  seed.status == model.SubscriptionActive,
		}
		if err := s.CreateSubscription(ctx, sub); err != nil {
			return false, fmt.Errorf("failed to seed %s: %w", seed.merchant, err)
		}
		idsByMerchant[seed.merchant] = sub.ID
	}

	for _, seed := range demoTransactions {
		txn := &model.Transaction{
			Date:           now.Add(-time.Duration(seed.daysAgo) * day),
			Merchant:       seed.merchant,
			SubscriptionID: idsByMerchant[seed.merchant],
			Category:       seed.category,
			Type:           model.TransactionAutoPay,
			Status:         model.TransactionSuccess,
			Amount:         seed.amount,
		}
		if err := s.CreateTransaction(ctx, txn); err != nil {
			return false, fmt.Errorf("failed to seed transaction for %s: %w", seed.merchant, err)
		}
	}

	slog.Info("Seeded demo data",
		"subscriptions", len(demoSubscriptions),
		"transactions", len(demoTransactions))
	return true, nil
}

func countRows(ctx context.Context, q queryable, table string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	return count, err
}
