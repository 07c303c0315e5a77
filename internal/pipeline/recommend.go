package pipeline

import (
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// Actions offered to the user, keyed by anomaly type.
var (
	priceIncreaseActions = []string{"Keep subscription", "Cancel auto-pay", "Dismiss"}
	unusedActions        = []string{"Continue", "Pause subscription", "Cancel subscription", "Dismiss"}
	renewalActions       = []string{"Allow renewal", "Cancel before renewal", "Set reminder", "Dismiss"}
	duplicateActions     = []string{"Keep all", "Compare and choose one", "Dismiss"}
	defaultActions       = []string{"Continue", "Cancel", "Dismiss"}
)

// Recommend maps each reasoned alert to an alert payload and the actions available to
// the user. Nothing is persisted and nothing is executed; every recommendation requires
// user approval.
func Recommend(now time.Time, reasoned []model.ReasonedAlert) []model.Recommendation {
	recs := make([]model.Recommendation, 0, len(reasoned))
	for _, ra := range reasoned {
		actions, suggested := actionsFor(ra.Assessment.Anomaly)
		recs = append(recs, model.Recommendation{
			SuggestedAction:      suggested,
			AvailableActions:     actions,
			Alert:                buildAlert(now, ra),
			RequiresUserApproval: true,
		})
	}
	return recs
}

func actionsFor(anomaly model.Anomaly) ([]string, string) {
	high := anomaly.Severity == model.SeverityHigh

	switch anomaly.Details.(type) {
	case model.PriceIncrease:
		if high {
			return clone(priceIncreaseActions), "Cancel auto-pay"
		}
		return clone(priceIncreaseActions), "Review and decide"
	case model.UnusedSubscription:
		if high {
			return clone(unusedActions), "Cancel subscription"
		}
		return clone(unusedActions), "Pause subscription"
	case model.UpcomingRenewal:
		return clone(renewalActions), "Review usage before renewal"
	case model.DuplicateService:
		return clone(duplicateActions), "Compare and choose one"
	default:
		return clone(defaultActions), "Review"
	}
}

func buildAlert(now time.Time, ra model.ReasonedAlert) model.Alert {
	anomaly := ra.Assessment.Anomaly
	alert := model.Alert{
		CreatedAt:      now,
		Type:           anomaly.Type,
		Severity:       anomaly.Severity,
		SubscriptionID: anomaly.SubscriptionID,
		Merchant:       anomaly.Merchant,
		Title:          ra.Title,
		Description:    ra.Description,
		Recommendation: ra.Recommendation,
		AIExplanation:  ra.AIExplanation,
		Status:         model.AlertPending,
		FinancialImpact: model.FinancialImpact{
			Monthly: ra.Assessment.MonthlyLoss,
			Yearly:  ra.Assessment.YearlyLoss,
		},
	}

	if pi, ok := anomaly.Details.(model.PriceIncrease); ok {
		oldAmount, newAmount := pi.OldAmount, pi.NewAmount
		alert.OldAmount = &oldAmount
		alert.NewAmount = &newAmount
	}
	return alert
}

func clone(actions []string) []string {
	return append([]string(nil), actions...)
}
