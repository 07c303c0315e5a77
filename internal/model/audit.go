package model

import "time"

// AuditAction names an auditable event.
type AuditAction string

// Audit action constants.
const (
	AuditAlertCreated          AuditAction = "alert_created"
	AuditAlertResolved         AuditAction = "alert_resolved"
	AuditAlertDismissed        AuditAction = "alert_dismissed"
	AuditSubscriptionCancelled AuditAction = "subscription_cancelled"
	AuditSubscriptionPaused    AuditAction = "subscription_paused"
	AuditSubscriptionResumed   AuditAction = "subscription_resumed"
	AuditAgentRun              AuditAction = "agent_run"
)

// AuditEntity is the kind of record an audit entry refers to.
type AuditEntity string

// Audit entity constants.
const (
	EntityAlert        AuditEntity = "alert"
	EntitySubscription AuditEntity = "subscription"
	EntityAgent        AuditEntity = "agent"
)

// AuditLog records who did what. UserApproved is true only for user-initiated actions.
type AuditLog struct {
	Timestamp    time.Time   `json:"timestamp"`
	ID           string      `json:"id"`
	Action       AuditAction `json:"action"`
	EntityType   AuditEntity `json:"entityType"`
	EntityID     string      `json:"entityId"`
	Details      string      `json:"details"`
	UserApproved bool        `json:"userApproved"`
}
