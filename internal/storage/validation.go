// Package storage provides the data persistence layer for the sentinel application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidAlert        = errors.New("invalid alert")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidAuditLog     = errors.New("invalid audit log")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSubscription validates a subscription before insert.
func validateSubscription(sub *model.Subscription) error {
	if sub == nil {
		return fmt.Errorf("%w: subscription", ErrNilParameter)
	}
	if sub.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidSubscription)
	}
	if sub.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidSubscription)
	}
	if sub.CurrentAmount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidSubscription, sub.CurrentAmount)
	}
	if !sub.BillingCycle.Valid() {
		return fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidSubscription, sub.BillingCycle)
	}
	if !sub.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSubscription, sub.Status)
	}
	if sub.NextBillingDate.IsZero() {
		return fmt.Errorf("%w: missing next billing date", ErrInvalidSubscription)
	}
	return validatePriceChange(sub.PreviousAmount, sub.CurrentAmount)
}

// validatePriceChange rejects a recorded previous amount equal to the current one.
func validatePriceChange(previous *float64, current float64) error {
	if previous != nil && *previous == current {
		return fmt.Errorf("%w: previous amount %v equals current amount", ErrInvalidSubscription, *previous)
	}
	return nil
}

// validateSubscriptionUpdate validates the fields present in a partial update.
func validateSubscriptionUpdate(update model.SubscriptionUpdate) error {
	if update.CurrentAmount != nil && *update.CurrentAmount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidSubscription, *update.CurrentAmount)
	}
	if update.Status != nil && !update.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *update.Status)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidTransaction)
	}
	if txn.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidTransaction)
	}
	if txn.Status == "" {
		return fmt.Errorf("%w: missing status", ErrInvalidTransaction)
	}
	return nil
}

// validateAlert validates an alert before insert.
func validateAlert(alert *model.Alert) error {
	if alert == nil {
		return fmt.Errorf("%w: alert", ErrNilParameter)
	}
	if alert.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidAlert)
	}
	if alert.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidAlert)
	}
	if alert.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidAlert)
	}
	if alert.Status != "" && !alert.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, alert.Status)
	}
	return nil
}

// validateAuditLog validates an audit entry before insert.
func validateAuditLog(entry *model.AuditLog) error {
	if entry == nil {
		return fmt.Errorf("%w: audit log", ErrNilParameter)
	}
	if entry.Action == "" {
		return fmt.Errorf("%w: missing action", ErrInvalidAuditLog)
	}
	if entry.EntityType == "" {
		return fmt.Errorf("%w: missing entity type", ErrInvalidAuditLog)
	}
	return nil
}
