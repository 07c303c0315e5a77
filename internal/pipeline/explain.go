package pipeline

import (
	"context"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
)

// DefaultCurrency is the symbol used in explanation text when none is configured.
const DefaultCurrency = "₹"

// Explainer turns a risk assessment into human-readable text. Implementations are
// total: they never fail and never return an empty field.
type Explainer interface {
	Explain(ctx context.Context, assessment model.RiskAssessment) model.Explanation
}

// ExplainAll runs the explanation stage over every assessment, preserving order.
func ExplainAll(ctx context.Context, explainer Explainer, assessments []model.RiskAssessment) []model.ReasonedAlert {
	reasoned := make([]model.ReasonedAlert, 0, len(assessments))
	for _, assessment := range assessments {
		reasoned = append(reasoned, model.ReasonedAlert{
			Explanation: explainer.Explain(ctx, assessment),
			Assessment:  assessment,
		})
	}
	return reasoned
}

// TemplateExplainer builds explanations from fixed templates keyed by anomaly type.
type TemplateExplainer struct {
	currency string
}

// NewTemplateExplainer returns a template explainer that prefixes amounts with currency.
func NewTemplateExplainer(currency string) *TemplateExplainer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &TemplateExplainer{currency: currency}
}

// Explain implements Explainer.
func (t *TemplateExplainer) Explain(_ context.Context, assessment model.RiskAssessment) model.Explanation {
	anomaly := assessment.Anomaly
	merchant := anomaly.Merchant
	monthly := t.amount(assessment.MonthlyLoss)
	yearly := t.amount(assessment.YearlyLoss)

	switch d := anomaly.Details.(type) {
	case model.PriceIncrease:
		return model.Explanation{
			Title:       fmt.Sprintf("%s Price Increase Detected", merchant),
			Description: fmt.Sprintf("%s increased its price by %d%%, costing you %s more per year.", merchant, d.PercentageChange, yearly),
			AIExplanation: fmt.Sprintf("Our AI detected a %d%% price increase on your %s subscription. "+
				"This silent increase happened without direct notification. "+
				"Over the next year, you'll pay %s more than before. "+
				"This is a %s risk alert that requires your attention.",
				d.PercentageChange, merchant, yearly, assessment.RiskLevel),
			Recommendation: "Review if the service still provides value at this price, consider alternatives or cancelling.",
		}

	case model.UnusedSubscription:
		return model.Explanation{
			Title:       fmt.Sprintf("%s Unused for %d Days", merchant, d.DaysSinceLastUse),
			Description: fmt.Sprintf("You haven't used %s in %d days but are still being charged %s/month.", merchant, d.DaysSinceLastUse, monthly),
			AIExplanation: fmt.Sprintf("Your %s subscription has been inactive for %d days. "+
				"At %s/month, this costs you %s/year for a service you're not using. "+
				"This represents silent financial leakage that many users overlook.",
				merchant, d.DaysSinceLastUse, monthly, yearly),
			Recommendation: "Consider pausing or cancelling this subscription to save money.",
		}

	case model.UpcomingRenewal:
		recommendation := "Review your usage and decide if you want to continue."
		if d.DaysUntilRenewal <= 2 {
			recommendation = "Urgent: Decide now if you want to keep or cancel before auto-renewal."
		}
		return model.Explanation{
			Title:       fmt.Sprintf("%s Annual Renewal in %d Days", merchant, d.DaysUntilRenewal),
			Description: fmt.Sprintf("Your %s subscription will auto-renew for %s in %d days.", merchant, yearly, d.DaysUntilRenewal),
			AIExplanation: fmt.Sprintf("Your annual %s subscription is about to auto-renew. "+
				"The charge of %s will be deducted automatically. "+
				"Now is the time to decide if you want to continue this service for another year.",
				merchant, yearly),
			Recommendation: recommendation,
		}

	case model.DuplicateService:
		return model.Explanation{
			Title:       fmt.Sprintf("Multiple %s Subscriptions", d.Category),
			Description: fmt.Sprintf("You have multiple subscriptions in the %s category that may overlap.", d.Category),
			AIExplanation: fmt.Sprintf("Our AI detected multiple active subscriptions in the %s category: %s. "+
				"Having overlapping services costs you %s/year in potential waste. "+
				"Consider if you need all of them.",
				d.Category, merchant, yearly),
			Recommendation: "Compare features and keep only the one you use most.",
		}

	default:
		return model.Explanation{
			Title:          fmt.Sprintf("Alert for %s", merchant),
			Description:    fmt.Sprintf("Potential issue detected with your %s subscription.", merchant),
			AIExplanation:  fmt.Sprintf("Our AI flagged a potential issue with your %s subscription worth %s/year.", merchant, yearly),
			Recommendation: "Review this subscription and take appropriate action.",
		}
	}
}

func (t *TemplateExplainer) amount(v float64) string {
	return t.currency + money.Format(v)
}
