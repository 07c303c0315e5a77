package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// ExpectedSchemaVersion is the schema version this build reads and writes. Migrate
// fails if the database ends up anywhere else.
const ExpectedSchemaVersion = 3

// Migration moves the schema to Version inside one transaction: Before, then
// Statements in order, then After. Hooks are optional.
type Migration struct {
	Before      func(context.Context, *sql.Tx) error
	After       func(context.Context, *sql.Tx) error
	Description string
	Statements  []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS subscriptions (
				id TEXT PRIMARY KEY,
				merchant TEXT NOT NULL,
				current_amount REAL NOT NULL CHECK (current_amount > 0),
				previous_amount REAL,
				billing_cycle TEXT NOT NULL CHECK (billing_cycle IN ('monthly', 'yearly')),
				status TEXT NOT NULL CHECK (status IN ('active', 'paused', 'cancelled')),
				last_used_date DATETIME,
				next_billing_date DATETIME NOT NULL,
				category TEXT NOT NULL,
				auto_pay_enabled INTEGER NOT NULL DEFAULT 1
			)`,
			`CREATE INDEX idx_subscriptions_category ON subscriptions(category)`,

			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				date DATETIME NOT NULL,
				merchant TEXT NOT NULL,
				amount REAL NOT NULL,
				transaction_type TEXT NOT NULL,
				status TEXT NOT NULL,
				subscription_id TEXT,
				category TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX idx_transactions_date ON transactions(date)`,
			`CREATE INDEX idx_transactions_subscription ON transactions(subscription_id)`,

			`CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				severity TEXT NOT NULL,
				subscription_id TEXT NOT NULL,
				merchant TEXT NOT NULL,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				financial_impact_monthly REAL NOT NULL,
				financial_impact_yearly REAL NOT NULL,
				recommendation TEXT NOT NULL,
				ai_explanation TEXT NOT NULL,
				status TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				old_amount REAL,
				new_amount REAL
			)`,
			`CREATE INDEX idx_alerts_status ON alerts(status)`,

			`CREATE TABLE IF NOT EXISTS agent_statuses (
				name TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				last_run DATETIME,
				observations INTEGER NOT NULL DEFAULT 0
			)`,
		},
		After: seedAgentStatuses,
	},
	{
		Version:     2,
		Description: "Add audit log",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS audit_logs (
				id TEXT PRIMARY KEY,
				timestamp DATETIME NOT NULL,
				action TEXT NOT NULL,
				entity_type TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				details TEXT NOT NULL,
				user_approved INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX idx_audit_logs_timestamp ON audit_logs(timestamp)`,
		},
	},
	{
		Version:     3,
		Description: "Enforce one alert per merchant and type",
		Before:      dropDuplicateAlerts,
		Statements: []string{
			`CREATE UNIQUE INDEX idx_alerts_dedup ON alerts(merchant, type)`,
		},
	},
}

// seedAgentStatuses registers every pipeline stage as idle.
func seedAgentStatuses(ctx context.Context, tx *sql.Tx) error {
	for _, name := range model.AgentNames {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO agent_statuses (name, status, observations) VALUES (?, ?, 0)`,
			name, model.AgentIdle,
		); err != nil {
			return fmt.Errorf("failed to seed agent status %q: %w", name, err)
		}
	}
	return nil
}

// dropDuplicateAlerts keeps the oldest alert of every (merchant, type) pair written
// before the unique index existed.
func dropDuplicateAlerts(ctx context.Context, tx *sql.Tx) error {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM alerts
		WHERE rowid NOT IN (SELECT MIN(rowid) FROM alerts GROUP BY merchant, type)`)
	if err != nil {
		return fmt.Errorf("failed to remove duplicate alerts: %w", err)
	}
	if removed, _ := res.RowsAffected(); removed > 0 {
		slog.Warn("Removed duplicate alerts before adding uniqueness constraint", "count", removed)
	}
	return nil
}

func (m Migration) apply(ctx context.Context, tx *sql.Tx) error {
	if m.Before != nil {
		if err := m.Before(ctx, tx); err != nil {
			return err
		}
	}
	for i, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if m.After != nil {
		if err := m.After(ctx, tx); err != nil {
			return err
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Migrate applies every migration newer than the database's schema version, each in
// its own transaction.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.inTx(ctx, func(tx *sql.Tx) error { return m.apply(ctx, tx) }); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
		current = m.Version
	}

	if current != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, current)
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
