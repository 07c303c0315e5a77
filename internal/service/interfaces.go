// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// SubscriptionReader reads subscriptions and the transactions charged against them.
type SubscriptionReader interface {
	GetSubscriptions(ctx context.Context) ([]model.Subscription, error)
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
}

// AlertStore reads and writes alerts. CreateAlert must return common.ErrDuplicateEntry
// when an alert for the same (merchant, type) pair already exists.
type AlertStore interface {
	GetAlerts(ctx context.Context) ([]model.Alert, error)
	GetAlert(ctx context.Context, id string) (*model.Alert, error)
	CreateAlert(ctx context.Context, alert *model.Alert) error
	UpdateAlert(ctx context.Context, id string, update model.AlertUpdate) (*model.Alert, error)
}

// AgentStatusStore tracks per-stage liveness.
type AgentStatusStore interface {
	GetAgentStatuses(ctx context.Context) ([]model.AgentStatus, error)
	UpdateAgentStatus(ctx context.Context, name string, update model.AgentStatusUpdate) (*model.AgentStatus, error)
}

// AuditLogger records auditable events.
type AuditLogger interface {
	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
}

// PipelineStore is everything the analysis pipeline needs from persistence.
// It deliberately has no way to mutate subscriptions.
type PipelineStore interface {
	SubscriptionReader
	AlertStore
	AgentStatusStore
	AuditLogger
}

// ApprovalStore is what user-approved actions need: alerts, single subscriptions and
// the audit trail.
type ApprovalStore interface {
	AlertStore
	AuditLogger
	GetSubscription(ctx context.Context, id string) (*model.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, update model.SubscriptionUpdate) (*model.Subscription, error)
}

// BillingStore is what simulated payments and checkout need.
type BillingStore interface {
	GetSubscriptions(ctx context.Context) ([]model.Subscription, error)
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	UpdateSubscription(ctx context.Context, id string, update model.SubscriptionUpdate) (*model.Subscription, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	PipelineStore

	// Subscription operations
	GetSubscription(ctx context.Context, id string) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	UpdateSubscription(ctx context.Context, id string, update model.SubscriptionUpdate) (*model.Subscription, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error

	// Audit operations
	GetAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error)

	// Reporting
	GetDashboardSummary(ctx context.Context) (*DashboardSummary, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DashboardSummary contains aggregate figures for the overview screen.
type DashboardSummary struct {
	RiskScore            model.Severity `json:"riskScore"`
	TotalSubscriptions   int            `json:"totalSubscriptions"`
	ActiveSubscriptions  int            `json:"activeSubscriptions"`
	PendingAlerts        int            `json:"pendingAlerts"`
	MonthlySpend         float64        `json:"monthlySpend"`
	YearlyProjectedSpend float64        `json:"yearlyProjectedSpend"`
	PotentialSavings     float64        `json:"potentialSavings"`
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
