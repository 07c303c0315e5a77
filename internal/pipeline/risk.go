package pipeline

import (
	"sort"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
)

// Risk thresholds, in whole currency units.
const (
	highYearlyLoss    = 30000
	highMonthlyLoss   = 3000
	mediumYearlyLoss  = 10000
	mediumMonthlyLoss = 1000
)

// Assess computes monetary impact, risk level and urgency for every anomaly and returns
// the assessments ordered by urgency, then yearly loss, both descending. Equal keys keep
// their input order.
func Assess(anomalies []model.Anomaly) []model.RiskAssessment {
	assessments := make([]model.RiskAssessment, 0, len(anomalies))
	for _, anomaly := range anomalies {
		assessments = append(assessments, assess(anomaly))
	}

	sort.SliceStable(assessments, func(i, j int) bool {
		if assessments[i].Urgency != assessments[j].Urgency {
			return assessments[i].Urgency > assessments[j].Urgency
		}
		return assessments[i].YearlyLoss > assessments[j].YearlyLoss
	})
	return assessments
}

func assess(anomaly model.Anomaly) model.RiskAssessment {
	monthly, yearly := losses(anomaly.Details)
	level := riskLevel(monthly, yearly)

	return model.RiskAssessment{
		Anomaly:     anomaly,
		RiskLevel:   level,
		MonthlyLoss: money.Round(monthly),
		YearlyLoss:  money.Round(yearly),
		Urgency:     urgency(anomaly.Details, level),
	}
}

// losses returns the unrounded monthly and yearly loss for an anomaly payload.
// Unknown payloads carry no loss.
func losses(details model.AnomalyDetails) (monthly, yearly float64) {
	switch d := details.(type) {
	case model.PriceIncrease:
		increase := d.NewAmount - d.OldAmount
		monthly, yearly = money.Monthly(increase, d.BillingCycle), money.Yearly(increase, d.BillingCycle)
	case model.UnusedSubscription:
		monthly, yearly = money.Monthly(d.Amount, d.BillingCycle), money.Yearly(d.Amount, d.BillingCycle)
	case model.UpcomingRenewal:
		monthly, yearly = 0, d.Amount
	case model.DuplicateService:
		// Consolidating could cut the combined cost roughly in half.
		monthly = money.Round(d.TotalMonthlyCost / 2)
		yearly = monthly * 12
	}
	return max(monthly, 0), max(yearly, 0)
}

func riskLevel(monthly, yearly float64) model.Severity {
	switch {
	case yearly >= highYearlyLoss || monthly >= highMonthlyLoss:
		return model.SeverityHigh
	case yearly >= mediumYearlyLoss || monthly >= mediumMonthlyLoss:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func urgency(details model.AnomalyDetails, level model.Severity) int {
	if renewal, ok := details.(model.UpcomingRenewal); ok {
		switch {
		case renewal.DaysUntilRenewal <= 1:
			return 5
		case renewal.DaysUntilRenewal <= 3:
			return 4
		default:
			return 3
		}
	}

	switch level {
	case model.SeverityHigh:
		return 4
	case model.SeverityMedium:
		return 2
	default:
		return 1
	}
}
