package pipeline

import (
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// Anomaly thresholds.
const (
	priceIncreaseMinPercent  = 15
	priceIncreaseHighPercent = 25
	unusedHighDays           = 90
	unusedMediumDays         = 60
	renewalHighDays          = 3
)

// Detect applies the four rule sets to an observation. A subscription may contribute
// to more than one anomaly.
func Detect(obs Observation) []model.Anomaly {
	var anomalies []model.Anomaly

	for _, pc := range obs.Patterns.PriceChanges {
		if pc.PercentageChange < priceIncreaseMinPercent {
			continue
		}
		severity := model.SeverityMedium
		if pc.PercentageChange >= priceIncreaseHighPercent {
			severity = model.SeverityHigh
		}
		sub := pc.Subscription
		anomalies = append(anomalies, model.NewAnomaly(sub.ID, sub.Merchant, severity, model.PriceIncrease{
			BillingCycle:     sub.BillingCycle,
			OldAmount:        *sub.PreviousAmount,
			NewAmount:        sub.CurrentAmount,
			PercentageChange: pc.PercentageChange,
		}))
	}

	for _, idle := range obs.Patterns.Unused {
		severity := model.SeverityLow
		switch {
		case idle.DaysSinceLastUse >= unusedHighDays:
			severity = model.SeverityHigh
		case idle.DaysSinceLastUse >= unusedMediumDays:
			severity = model.SeverityMedium
		}
		sub := idle.Subscription
		anomalies = append(anomalies, model.NewAnomaly(sub.ID, sub.Merchant, severity, model.UnusedSubscription{
			BillingCycle:     sub.BillingCycle,
			Amount:           sub.CurrentAmount,
			DaysSinceLastUse: idle.DaysSinceLastUse,
		}))
	}

	for _, renewal := range obs.Patterns.Renewals {
		// Only annual lump sums warrant a pre-renewal alert.
		if renewal.Subscription.BillingCycle != model.CycleYearly {
			continue
		}
		severity := model.SeverityMedium
		if renewal.DaysUntilRenewal <= renewalHighDays {
			severity = model.SeverityHigh
		}
		sub := renewal.Subscription
		anomalies = append(anomalies, model.NewAnomaly(sub.ID, sub.Merchant, severity, model.UpcomingRenewal{
			BillingCycle:     sub.BillingCycle,
			Amount:           sub.CurrentAmount,
			DaysUntilRenewal: renewal.DaysUntilRenewal,
		}))
	}

	return append(anomalies, detectDuplicates(obs.Subscriptions)...)
}

// detectDuplicates emits one anomaly per category holding two or more active
// subscriptions. Categories are visited in order of first appearance.
func detectDuplicates(subs []model.Subscription) []model.Anomaly {
	var order []string
	groups := make(map[string][]model.Subscription)
	for _, sub := range subs {
		if !sub.IsActive() {
			continue
		}
		if _, seen := groups[sub.Category]; !seen {
			order = append(order, sub.Category)
		}
		groups[sub.Category] = append(groups[sub.Category], sub)
	}

	var anomalies []model.Anomaly
	for _, category := range order {
		members := groups[category]
		if len(members) < 2 {
			continue
		}

		details := model.DuplicateService{Category: category}
		merchants := make([]string, 0, len(members))
		for _, sub := range members {
			merchants = append(merchants, sub.Merchant)
			details.Subscriptions = append(details.Subscriptions, model.DuplicateMember{
				ID:       sub.ID,
				Merchant: sub.Merchant,
				Amount:   sub.CurrentAmount,
			})
			// Amounts are summed as stored; yearly plans are not normalized.
			details.TotalMonthlyCost += sub.CurrentAmount
		}

		anomalies = append(anomalies, model.NewAnomaly(
			members[0].ID, strings.Join(merchants, ", "), model.SeverityLow, details,
		))
	}
	return anomalies
}
