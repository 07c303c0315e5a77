package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/google/uuid"
)

// defaultAuditLimit caps GetAuditLogs when no limit is given.
const defaultAuditLimit = 100

// CreateAuditLog appends an audit entry.
func (s *SQLiteStorage) CreateAuditLog(ctx context.Context, entry *model.AuditLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAuditLog(entry); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, timestamp, action, entity_type, entity_id, details, user_approved)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, string(entry.Action), string(entry.EntityType),
		entry.EntityID, entry.Details, entry.UserApproved,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// GetAuditLogs returns the most recent audit entries, newest first.
func (s *SQLiteStorage) GetAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, action, entity_type, entity_id, details, user_approved
		FROM audit_logs
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AuditLog
	for rows.Next() {
		var entry model.AuditLog
		if err := rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Details, &entry.UserApproved,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
