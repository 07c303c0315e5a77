// Package approval applies actions the user has explicitly approved. It is the only
// place, apart from the billing simulation, that changes a subscription.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/Veraticus/subscription-sentinel/internal/service"
)

// Action is the user's decision on an alert.
type Action string

// Alert resolution actions.
const (
	ActionKeep   Action = "keep"
	ActionCancel Action = "cancel"
)

// SubscriptionAction is a direct change requested for a subscription.
type SubscriptionAction string

// Subscription actions.
const (
	SubscriptionCancel SubscriptionAction = "cancel"
	SubscriptionPause  SubscriptionAction = "pause"
	SubscriptionResume SubscriptionAction = "resume"
)

// ErrInvalidAction is returned for an unknown alert or subscription action.
var ErrInvalidAction = errors.New("invalid action")

// Resolution describes the outcome of resolving an alert.
type Resolution struct {
	Alert        *model.Alert        `json:"alert"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
	Action       Action              `json:"action"`
	Merchant     string              `json:"merchant"`
	Success      bool                `json:"success"`
}

// Service records user decisions.
type Service struct {
	store service.ApprovalStore
	now   func() time.Time
}

// New creates an approval service over store.
func New(store service.ApprovalStore) *Service {
	return &Service{store: store, now: time.Now}
}

// SetClock overrides the time source used for audit timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ParseAction validates a textual alert action.
func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionKeep, ActionCancel:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q (want keep or cancel)", ErrInvalidAction, raw)
}

// ParseSubscriptionAction validates a textual subscription action.
func ParseSubscriptionAction(raw string) (SubscriptionAction, error) {
	switch a := SubscriptionAction(raw); a {
	case SubscriptionCancel, SubscriptionPause, SubscriptionResume:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q (want cancel, pause or resume)", ErrInvalidAction, raw)
}

// Resolve marks an alert resolved. With ActionCancel the linked subscription is
// cancelled and auto-pay is disabled as well.
func (s *Service) Resolve(ctx context.Context, alertID string, action Action) (*Resolution, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}

	alert, err := s.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", alertID, err)
	}

	slog.Info("User approved alert action",
		"alert_id", alertID,
		"action", action,
		"merchant", alert.Merchant,
		"type", alert.Type)

	resolved := model.AlertResolved
	updated, err := s.store.UpdateAlert(ctx, alertID, model.AlertUpdate{Status: &resolved})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert %s: %w", alertID, err)
	}
	s.audit(ctx, model.AuditAlertResolved, model.EntityAlert, alertID,
		fmt.Sprintf("Alert for %s resolved with action %s", alert.Merchant, action))

	result := &Resolution{
		Alert:    updated,
		Action:   action,
		Merchant: alert.Merchant,
		Success:  true,
	}

	if action == ActionCancel && alert.SubscriptionID != "" {
		sub, err := s.UpdateSubscription(ctx, alert.SubscriptionID, SubscriptionCancel)
		if err != nil {
			return nil, err
		}
		result.Subscription = sub
		slog.Info("Subscription cancelled",
			"merchant", alert.Merchant,
			"yearly_savings", money.Format(alert.FinancialImpact.Yearly))
	}

	return result, nil
}

// Dismiss marks an alert dismissed. A dismissed alert is never recreated for the same
// merchant and anomaly type.
func (s *Service) Dismiss(ctx context.Context, alertID string) (*model.Alert, error) {
	alert, err := s.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", alertID, err)
	}

	dismissed := model.AlertDismissed
	updated, err := s.store.UpdateAlert(ctx, alertID, model.AlertUpdate{Status: &dismissed})
	if err != nil {
		return nil, fmt.Errorf("failed to dismiss alert %s: %w", alertID, err)
	}

	slog.Info("User dismissed alert", "alert_id", alertID, "merchant", alert.Merchant)
	s.audit(ctx, model.AuditAlertDismissed, model.EntityAlert, alertID, "Alert dismissed: "+alert.Title)
	return updated, nil
}

// UpdateSubscription cancels, pauses or resumes a subscription. Cancel and pause
// disable auto-pay; resume enables it.
func (s *Service) UpdateSubscription(ctx context.Context, id string, action SubscriptionAction) (*model.Subscription, error) {
	var (
		status  model.SubscriptionStatus
		autoPay bool
		audit   model.AuditAction
	)
	switch action {
	case SubscriptionCancel:
		status, audit = model.SubscriptionCancelled, model.AuditSubscriptionCancelled
	case SubscriptionPause:
		status, audit = model.SubscriptionPaused, model.AuditSubscriptionPaused
	case SubscriptionResume:
		status, autoPay, audit = model.SubscriptionActive, true, model.AuditSubscriptionResumed
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	sub, err := s.store.UpdateSubscription(ctx, id, model.SubscriptionUpdate{
		Status:         &status,
		AutoPayEnabled: &autoPay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to %s subscription %s: %w", action, id, err)
	}

	slog.Info("User action applied to subscription", "action", action, "merchant", sub.Merchant)
	s.audit(ctx, audit, model.EntitySubscription, id, fmt.Sprintf("User action %s on %s", action, sub.Merchant))
	return sub, nil
}

// audit failures never undo an approved action.
func (s *Service) audit(ctx context.Context, action model.AuditAction, entity model.AuditEntity, id, details string) {
	err := s.store.CreateAuditLog(ctx, &model.AuditLog{
		Timestamp:    s.now(),
		Action:       action,
		EntityType:   entity,
		EntityID:     id,
		Details:      details,
		UserApproved: true,
	})
	if err != nil {
		slog.Warn("Failed to write audit log", "action", action, "entity_id", id, "error", err)
	}
}
