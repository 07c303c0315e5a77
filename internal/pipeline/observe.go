package pipeline

import (
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
)

// Observation thresholds.
const (
	unusedAfterDays   = 30
	renewalWindowDays = 7
)

// PriceChange is a subscription whose recorded previous amount differs from its current one.
type PriceChange struct {
	Subscription     model.Subscription
	PercentageChange int
}

// IdleSubscription is an active subscription not used for at least 30 days.
type IdleSubscription struct {
	Subscription     model.Subscription
	DaysSinceLastUse int
}

// Renewal is an active subscription billing within the next seven days.
type Renewal struct {
	Subscription     model.Subscription
	DaysUntilRenewal int
}

// Patterns are the buckets derived from the raw records.
type Patterns struct {
	PriceChanges []PriceChange
	Unused       []IdleSubscription
	Renewals     []Renewal
}

// Observation is the output of the monitoring stage. The input records are passed
// through unchanged.
type Observation struct {
	Subscriptions []model.Subscription
	Transactions  []model.Transaction
	Patterns      Patterns
}

// Observe derives price changes, unused subscriptions and upcoming renewals. It has
// no side effects and is deterministic for a given now.
func Observe(now time.Time, subs []model.Subscription, txns []model.Transaction) Observation {
	obs := Observation{
		Subscriptions: subs,
		Transactions:  txns,
	}

	for _, sub := range subs {
		// Decreases pass through; the anomaly rules filter them.
		if sub.PriceChanged() {
			obs.Patterns.PriceChanges = append(obs.Patterns.PriceChanges, PriceChange{
				Subscription:     sub,
				PercentageChange: money.PercentageChange(*sub.PreviousAmount, sub.CurrentAmount),
			})
		}

		if !sub.IsActive() {
			continue
		}

		if sub.LastUsedDate != nil {
			if days := floorDays(*sub.LastUsedDate, now); days >= unusedAfterDays {
				obs.Patterns.Unused = append(obs.Patterns.Unused, IdleSubscription{
					Subscription:     sub,
					DaysSinceLastUse: days,
				})
			}
		}

		if days := floorDays(now, sub.NextBillingDate); days >= 0 && days <= renewalWindowDays {
			obs.Patterns.Renewals = append(obs.Patterns.Renewals, Renewal{
				Subscription:     sub,
				DaysUntilRenewal: days,
			})
		}
	}

	return obs
}
