// Package model defines the core domain models used throughout the application.
package model

import "time"

// BillingCycle is how often a subscription charges.
type BillingCycle string

// Billing cycle constants.
const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// Valid reports whether c is a known billing cycle.
func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

// Subscription status constants.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionPaused, SubscriptionCancelled:
		return true
	}
	return false
}

// Subscription is a recurring payment obligation.
type Subscription struct {
	NextBillingDate time.Time `json:"nextBillingDate"`

	// LastUsedDate is nil when usage is unknown, which is not the same as never used.
	LastUsedDate *time.Time `json:"lastUsedDate"`
	// PreviousAmount is set only after an observed price change.
	PreviousAmount *float64 `json:"previousAmount,omitempty"`

	ID             string             `json:"id"`
	Merchant       string             `json:"merchant"`
	Category       string             `json:"category"`
	BillingCycle   BillingCycle       `json:"billingCycle"`
	Status         SubscriptionStatus `json:"status"`
	CurrentAmount  float64            `json:"currentAmount"`
	AutoPayEnabled bool               `json:"autoPayEnabled"`
}

// IsActive reports whether the subscription is currently billing.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// PriceChanged reports whether a previous amount is recorded and differs from the current one.
func (s *Subscription) PriceChanged() bool {
	return s.PreviousAmount != nil && *s.PreviousAmount != s.CurrentAmount
}

// SubscriptionUpdate is a partial update. Nil fields are left untouched.
type SubscriptionUpdate struct {
	CurrentAmount  *float64
	PreviousAmount *float64
	Status         *SubscriptionStatus
	AutoPayEnabled *bool
	LastUsedDate   *time.Time
}
