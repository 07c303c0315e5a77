package model

import "time"

// TransactionType distinguishes scheduled charges from one-off payments.
type TransactionType string

// Transaction type constants.
const (
	TransactionAutoPay TransactionType = "AUTO_PAY"
	TransactionManual  TransactionType = "MANUAL"
)

// TransactionStatus is the outcome of a payment event.
type TransactionStatus string

// Transaction status constants.
const (
	TransactionSuccess TransactionStatus = "success"
	TransactionBlocked TransactionStatus = "blocked"
	TransactionPending TransactionStatus = "pending"
)

// Transaction is an immutable record of a payment event. It is created once and never
// mutated or deleted.
type Transaction struct {
	Date           time.Time         `json:"date"`
	ID             string            `json:"id"`
	Merchant       string            `json:"merchant"`
	SubscriptionID string            `json:"subscriptionId,omitempty"`
	Category       string            `json:"category"`
	Type           TransactionType   `json:"transactionType"`
	Status         TransactionStatus `json:"status"`
	Amount         float64           `json:"amount"`
}
