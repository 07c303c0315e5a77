package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/google/uuid"
)

const subscriptionColumns = `id, merchant, current_amount, previous_amount, billing_cycle, status,
	last_used_date, next_billing_date, category, auto_pay_enabled`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var (
		sub      model.Subscription
		previous sql.NullFloat64
		lastUsed sql.NullTime
	)
	if err := row.Scan(
		&sub.ID, &sub.Merchant, &sub.CurrentAmount, &previous, &sub.BillingCycle, &sub.Status,
		&lastUsed, &sub.NextBillingDate, &sub.Category, &sub.AutoPayEnabled,
	); err != nil {
		return nil, err
	}
	sub.PreviousAmount = nullFloat(previous)
	sub.LastUsedDate = nullTime(lastUsed)
	return &sub, nil
}

// GetSubscriptions returns every subscription regardless of status, ordered by merchant.
func (s *SQLiteStorage) GetSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getSubscriptionsTx(ctx, s.db)
}

func (s *SQLiteStorage) getSubscriptionsTx(ctx context.Context, q queryable) ([]model.Subscription, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY merchant, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		sub, scanErr := scanSubscription(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", scanErr)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// GetSubscription returns a single subscription by ID.
func (s *SQLiteStorage) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	sub, err := scanSubscription(s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return sub, nil
}

// CreateSubscription inserts a subscription, assigning an ID if none is set.
func (s *SQLiteStorage) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubscription(sub); err != nil {
		return err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Merchant, sub.CurrentAmount, sub.PreviousAmount, sub.BillingCycle, sub.Status,
		sub.LastUsedDate, sub.NextBillingDate, sub.Category, sub.AutoPayEnabled,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("subscription %s: %w", sub.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// UpdateSubscription applies a partial update and returns the updated record.
func (s *SQLiteStorage) UpdateSubscription(ctx context.Context, id string, update model.SubscriptionUpdate) (*model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateSubscriptionUpdate(update); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	if update.CurrentAmount != nil {
		sets = append(sets, "current_amount = ?")
		args = append(args, *update.CurrentAmount)
	}
	if update.PreviousAmount != nil {
		sets = append(sets, "previous_amount = ?")
		args = append(args, *update.PreviousAmount)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.AutoPayEnabled != nil {
		sets = append(sets, "auto_pay_enabled = ?")
		args = append(args, *update.AutoPayEnabled)
	}
	if update.LastUsedDate != nil {
		sets = append(sets, "last_used_date = ?")
		args = append(args, *update.LastUsedDate)
	}

	if len(sets) == 0 {
		return s.GetSubscription(ctx, id)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanSubscription(tx.QueryRowContext(ctx,
			`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to query subscription: %w", err)
		}

		current, previous := existing.CurrentAmount, existing.PreviousAmount
		if update.CurrentAmount != nil {
			current = *update.CurrentAmount
		}
		if update.PreviousAmount != nil {
			previous = update.PreviousAmount
		}
		if err := validatePriceChange(previous, current); err != nil {
			return err
		}

		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetSubscription(ctx, id)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
