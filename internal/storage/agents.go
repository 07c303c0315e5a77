package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// GetAgentStatuses returns the status of every pipeline stage in pipeline order.
func (s *SQLiteStorage) GetAgentStatuses(ctx context.Context) ([]model.AgentStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, status, last_run, observations FROM agent_statuses`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]model.AgentStatus)
	var extra []model.AgentStatus
	for rows.Next() {
		status, scanErr := scanAgentStatus(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan agent status: %w", scanErr)
		}
		byName[status.Name] = *status
		if !isKnownAgent(status.Name) {
			extra = append(extra, *status)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statuses := make([]model.AgentStatus, 0, len(byName))
	for _, name := range model.AgentNames {
		if status, ok := byName[name]; ok {
			statuses = append(statuses, status)
		}
	}
	return append(statuses, extra...), nil
}

// UpdateAgentStatus applies a status change. Observations are incremented in the
// database rather than read and rewritten. A missing row is created.
func (s *SQLiteStorage) UpdateAgentStatus(ctx context.Context, name string, update model.AgentStatusUpdate) (*model.AgentStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var status any
	if update.Status != nil {
		status = string(*update.Status)
	}
	var lastRun any
	if update.LastRun != nil {
		lastRun = *update.LastRun
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_statuses (name, status, last_run, observations)
		VALUES (?, COALESCE(?, 'idle'), ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			status = COALESCE(?, status),
			last_run = COALESCE(?, last_run),
			observations = observations + excluded.observations`,
		name, status, lastRun, update.ObservationsAdded,
		status, lastRun,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent status: %w", err)
	}

	return scanAgentStatus(s.db.QueryRowContext(ctx,
		`SELECT name, status, last_run, observations FROM agent_statuses WHERE name = ?`, name))
}

func scanAgentStatus(row rowScanner) (*model.AgentStatus, error) {
	var (
		status  model.AgentStatus
		lastRun sql.NullTime
	)
	if err := row.Scan(&status.Name, &status.Status, &lastRun, &status.Observations); err != nil {
		return nil, err
	}
	if lastRun.Valid {
		status.LastRun = lastRun.Time
	}
	return &status, nil
}

func isKnownAgent(name string) bool {
	for _, known := range model.AgentNames {
		if known == name {
			return true
		}
	}
	return false
}
