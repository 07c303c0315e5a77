package model

// AnomalyType names a detection rule.
type AnomalyType string

// Anomaly type constants.
const (
	AnomalyPriceIncrease    AnomalyType = "price_increase"
	AnomalyUnused           AnomalyType = "unused_subscription"
	AnomalyTrialToPaid      AnomalyType = "trial_to_paid"
	AnomalyDuplicateService AnomalyType = "duplicate_service"
	AnomalyUpcomingRenewal  AnomalyType = "upcoming_renewal"
)

// Severity grades anomalies, risk levels and alerts.
type Severity string

// Severity constants.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Anomaly is a rule-triggered detection on one subscription, or on a group of them for
// duplicate services. Anomalies are transient and live for a single pipeline run.
type Anomaly struct {
	// Details carries the typed payload for Type. It may be nil for types that
	// have no detector, and consumers must fall back to a generic branch then.
	Details        AnomalyDetails `json:"data"`
	Type           AnomalyType    `json:"type"`
	SubscriptionID string         `json:"subscriptionId"`
	Merchant       string         `json:"merchant"`
	Severity       Severity       `json:"severity"`
}

// NewAnomaly builds an anomaly whose type is taken from its details.
func NewAnomaly(subscriptionID, merchant string, severity Severity, details AnomalyDetails) Anomaly {
	return Anomaly{
		Type:           details.AnomalyType(),
		SubscriptionID: subscriptionID,
		Merchant:       merchant,
		Severity:       severity,
		Details:        details,
	}
}

// AnomalyDetails is implemented by every typed anomaly payload.
type AnomalyDetails interface {
	AnomalyType() AnomalyType
}

// PriceIncrease is the payload of a price_increase anomaly.
type PriceIncrease struct {
	BillingCycle     BillingCycle `json:"billingCycle"`
	OldAmount        float64      `json:"oldAmount"`
	NewAmount        float64      `json:"newAmount"`
	PercentageChange int          `json:"percentageChange"`
}

// AnomalyType implements AnomalyDetails.
func (PriceIncrease) AnomalyType() AnomalyType { return AnomalyPriceIncrease }

// UnusedSubscription is the payload of an unused_subscription anomaly.
type UnusedSubscription struct {
	BillingCycle     BillingCycle `json:"billingCycle"`
	Amount           float64      `json:"amount"`
	DaysSinceLastUse int          `json:"daysSinceLastUse"`
}

// AnomalyType implements AnomalyDetails.
func (UnusedSubscription) AnomalyType() AnomalyType { return AnomalyUnused }

// UpcomingRenewal is the payload of an upcoming_renewal anomaly.
type UpcomingRenewal struct {
	BillingCycle     BillingCycle `json:"billingCycle"`
	Amount           float64      `json:"amount"`
	DaysUntilRenewal int          `json:"daysUntilRenewal"`
}

// AnomalyType implements AnomalyDetails.
func (UpcomingRenewal) AnomalyType() AnomalyType { return AnomalyUpcomingRenewal }

// DuplicateMember is one subscription inside a duplicate-service group.
type DuplicateMember struct {
	ID       string  `json:"id"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
}

// DuplicateService is the payload of a duplicate_service anomaly. TotalMonthlyCost sums
// member amounts as stored, without normalizing yearly plans to a monthly figure.
type DuplicateService struct {
	Category         string            `json:"category"`
	Subscriptions    []DuplicateMember `json:"subscriptions"`
	TotalMonthlyCost float64           `json:"totalMonthlyCost"`
}

// AnomalyType implements AnomalyDetails.
func (DuplicateService) AnomalyType() AnomalyType { return AnomalyDuplicateService }
