package model

import "time"

// AlertStatus tracks the user's decision on an alert.
type AlertStatus string

// Alert status constants.
const (
	AlertPending   AlertStatus = "pending"
	AlertResolved  AlertStatus = "resolved"
	AlertDismissed AlertStatus = "dismissed"
)

// Valid reports whether s is a known alert status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertPending, AlertResolved, AlertDismissed:
		return true
	}
	return false
}

// FinancialImpact is the money at stake, in whole currency units.
type FinancialImpact struct {
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// Alert is the durable, user-facing record that requires a decision.
type Alert struct {
	CreatedAt       time.Time       `json:"createdAt"`
	OldAmount       *float64        `json:"oldAmount,omitempty"`
	NewAmount       *float64        `json:"newAmount,omitempty"`
	ID              string          `json:"id"`
	Type            AnomalyType     `json:"type"`
	Severity        Severity        `json:"severity"`
	SubscriptionID  string          `json:"subscriptionId"`
	Merchant        string          `json:"merchant"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Recommendation  string          `json:"recommendation"`
	AIExplanation   string          `json:"aiExplanation"`
	Status          AlertStatus     `json:"status"`
	FinancialImpact FinancialImpact `json:"financialImpact"`
}

// DedupKey identifies the (merchant, type) pair an alert is unique on.
func (a *Alert) DedupKey() string {
	return a.Merchant + "-" + string(a.Type)
}

// AlertUpdate is a partial update applied by the user-approval path.
type AlertUpdate struct {
	Status *AlertStatus
}
