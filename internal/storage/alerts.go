package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/google/uuid"
)

const alertColumns = `id, type, severity, subscription_id, merchant, title, description,
	financial_impact_monthly, financial_impact_yearly, recommendation, ai_explanation,
	status, created_at, old_amount, new_amount`

func scanAlert(row rowScanner) (*model.Alert, error) {
	var (
		alert    model.Alert
		old, cur sql.NullFloat64
	)
	if err := row.Scan(
		&alert.ID, &alert.Type, &alert.Severity, &alert.SubscriptionID, &alert.Merchant,
		&alert.Title, &alert.Description,
		&alert.FinancialImpact.Monthly, &alert.FinancialImpact.Yearly,
		&alert.Recommendation, &alert.AIExplanation,
		&alert.Status, &alert.CreatedAt, &old, &cur,
	); err != nil {
		return nil, err
	}
	alert.OldAmount = nullFloat(old)
	alert.NewAmount = nullFloat(cur)
	return &alert, nil
}

// GetAlerts returns every alert, newest first.
func (s *SQLiteStorage) GetAlerts(ctx context.Context) ([]model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		alert, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", scanErr)
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// GetAlert returns a single alert by ID.
func (s *SQLiteStorage) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	alert, err := scanAlert(s.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alert: %w", err)
	}
	return alert, nil
}

// CreateAlert inserts an alert. At most one alert exists per (merchant, type) pair,
// whatever its status; a second insert for the same pair returns common.ErrDuplicateEntry
// and leaves the stored alert untouched.
func (s *SQLiteStorage) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlert(alert); err != nil {
		return err
	}

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = model.AlertPending
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(merchant, type) DO NOTHING`,
		alert.ID, string(alert.Type), string(alert.Severity), alert.SubscriptionID, alert.Merchant,
		alert.Title, alert.Description,
		alert.FinancialImpact.Monthly, alert.FinancialImpact.Yearly,
		alert.Recommendation, alert.AIExplanation,
		string(alert.Status), alert.CreatedAt, alert.OldAmount, alert.NewAmount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("alert %s: %w", alert.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert for %s: %w", alert.DedupKey(), common.ErrDuplicateEntry)
	}
	return nil
}

// UpdateAlert changes the status of an alert and returns the updated record.
func (s *SQLiteStorage) UpdateAlert(ctx context.Context, id string, update model.AlertUpdate) (*model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *update.Status)
		}
		result, err := s.db.ExecContext(ctx, `UPDATE alerts SET status = ? WHERE id = ?`, string(*update.Status), id)
		if err != nil {
			return nil, fmt.Errorf("failed to update alert: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return nil, fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
		}
	}

	return s.GetAlert(ctx, id)
}
