package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func priceAssessment() model.RiskAssessment {
	return Assess([]model.Anomaly{model.NewAnomaly("1", "Netflix", model.SeverityHigh, model.PriceIncrease{
		BillingCycle: model.CycleMonthly, OldAmount: 499, NewAmount: 649, PercentageChange: 30,
	})})[0]
}

func TestTemplateExplainer(t *testing.T) {
	explainer := NewTemplateExplainer("")

	tests := []struct {
		name       string
		assessment model.RiskAssessment
		want       model.Explanation
	}{
		{
			name:       "price increase",
			assessment: priceAssessment(),
			want: model.Explanation{
				Title:       "Netflix Price Increase Detected",
				Description: "Netflix increased its price by 30%, costing you ₹1800 more per year.",
				AIExplanation: "Our AI detected a 30% price increase on your Netflix subscription. " +
					"This silent increase happened without direct notification. " +
					"Over the next year, you'll pay ₹1800 more than before. " +
					"This is a low risk alert that requires your attention.",
				Recommendation: "Review if the service still provides value at this price, consider alternatives or cancelling.",
			},
		},
		{
			name: "unused subscription",
			assessment: Assess([]model.Anomaly{model.NewAnomaly("2", "Adobe Creative Cloud", model.SeverityHigh, model.UnusedSubscription{
				BillingCycle: model.CycleMonthly, Amount: 4999, DaysSinceLastUse: 90,
			})})[0],
			want: model.Explanation{
				Title:       "Adobe Creative Cloud Unused for 90 Days",
				Description: "You haven't used Adobe Creative Cloud in 90 days but are still being charged ₹4999/month.",
				AIExplanation: "Your Adobe Creative Cloud subscription has been inactive for 90 days. " +
					"At ₹4999/month, this costs you ₹59988/year for a service you're not using. " +
					"This represents silent financial leakage that many users overlook.",
				Recommendation: "Consider pausing or cancelling this subscription to save money.",
			},
		},
		{
			name: "renewal within two days is urgent",
			assessment: Assess([]model.Anomaly{model.NewAnomaly("3", "Amazon Prime", model.SeverityHigh, model.UpcomingRenewal{
				BillingCycle: model.CycleYearly, Amount: 1499, DaysUntilRenewal: 2,
			})})[0],
			want: model.Explanation{
				Title:       "Amazon Prime Annual Renewal in 2 Days",
				Description: "Your Amazon Prime subscription will auto-renew for ₹1499 in 2 days.",
				AIExplanation: "Your annual Amazon Prime subscription is about to auto-renew. " +
					"The charge of ₹1499 will be deducted automatically. " +
					"Now is the time to decide if you want to continue this service for another year.",
				Recommendation: "Urgent: Decide now if you want to keep or cancel before auto-renewal.",
			},
		},
		{
			name: "duplicate services",
			assessment: Assess([]model.Anomaly{model.NewAnomaly("4", "Dropbox, Google One", model.SeverityLow, model.DuplicateService{
				Category: "Cloud Storage", TotalMonthlyCost: 1129,
			})})[0],
			want: model.Explanation{
				Title:       "Multiple Cloud Storage Subscriptions",
				Description: "You have multiple subscriptions in the Cloud Storage category that may overlap.",
				AIExplanation: "Our AI detected multiple active subscriptions in the Cloud Storage category: Dropbox, Google One. " +
					"Having overlapping services costs you ₹6780/year in potential waste. " +
					"Consider if you need all of them.",
				Recommendation: "Compare features and keep only the one you use most.",
			},
		},
		{
			name:       "unknown payload uses the generic template",
			assessment: Assess([]model.Anomaly{model.NewAnomaly("5", "Mystery", model.SeverityLow, unknownDetails{})})[0],
			want: model.Explanation{
				Title:          "Alert for Mystery",
				Description:    "Potential issue detected with your Mystery subscription.",
				AIExplanation:  "Our AI flagged a potential issue with your Mystery subscription worth ₹0/year.",
				Recommendation: "Review this subscription and take appropriate action.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explainer.Explain(context.Background(), tt.assessment)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Complete())
		})
	}
}

func TestTemplateExplainer_RenewalLaterIsNotUrgent(t *testing.T) {
	assessment := Assess([]model.Anomaly{model.NewAnomaly("3", "Amazon Prime", model.SeverityMedium, model.UpcomingRenewal{
		BillingCycle: model.CycleYearly, Amount: 1499, DaysUntilRenewal: 5,
	})})[0]

	got := NewTemplateExplainer("").Explain(context.Background(), assessment)
	assert.Equal(t, "Review your usage and decide if you want to continue.", got.Recommendation)
}

func TestTemplateExplainer_Currency(t *testing.T) {
	got := NewTemplateExplainer("$").Explain(context.Background(), priceAssessment())
	assert.Equal(t, "Netflix increased its price by 30%, costing you $1800 more per year.", got.Description)
}

func TestExplainAll_PreservesOrder(t *testing.T) {
	assessments := Assess([]model.Anomaly{
		model.NewAnomaly("a", "First", model.SeverityLow, unknownDetails{}),
		model.NewAnomaly("b", "Second", model.SeverityLow, unknownDetails{}),
	})

	got := ExplainAll(context.Background(), NewTemplateExplainer(""), assessments)
	require.Len(t, got, 2)
	assert.Equal(t, "Alert for First", got[0].Title)
	assert.Equal(t, "Alert for Second", got[1].Title)
	assert.Equal(t, assessments[1], got[1].Assessment)
}

func TestGenerativeExplainer(t *testing.T) {
	template := NewTemplateExplainer("").Explain(context.Background(), priceAssessment())

	tests := []struct {
		name         string
		client       *fakeLLM
		want         model.Explanation
		wantFallback float64
	}{
		{
			name: "complete response",
			client: &fakeLLM{response: "```json\n" + `{"title":"Netflix got pricier","description":"Up 30%.",` +
				`"aiExplanation":"You now pay more.","recommendation":"Consider a cheaper plan."}` + "\n```"},
			want: model.Explanation{
				Title:          "Netflix got pricier",
				Description:    "Up 30%.",
				AIExplanation:  "You now pay more.",
				Recommendation: "Consider a cheaper plan.",
			},
		},
		{
			name:   "missing fields fall back one by one",
			client: &fakeLLM{response: `Sure! {"title":"Netflix got pricier","description":"  "}`},
			want: model.Explanation{
				Title:          "Netflix got pricier",
				Description:    template.Description,
				AIExplanation:  template.AIExplanation,
				Recommendation: template.Recommendation,
			},
		},
		{
			name:         "malformed response",
			client:       &fakeLLM{response: "I cannot help with that."},
			want:         template,
			wantFallback: 1,
		},
		{
			name:         "invalid JSON",
			client:       &fakeLLM{response: `{"title": 42}`},
			want:         template,
			wantFallback: 1,
		},
		{
			name:         "empty object",
			client:       &fakeLLM{response: `{}`},
			want:         template,
			wantFallback: 1,
		},
		{
			name:         "client error",
			client:       &fakeLLM{err: errors.New("connection refused")},
			want:         template,
			wantFallback: 1,
		},
		{
			name:         "timeout",
			client:       &fakeLLM{block: true},
			want:         template,
			wantFallback: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetrics(prometheus.NewRegistry())
			explainer := NewGenerativeExplainer(tt.client, NewTemplateExplainer(""),
				WithGenerationTimeout(20*time.Millisecond),
				WithFallbackMetrics(metrics),
				WithExplainerLogger(discardLogger()),
			)

			got := explainer.Explain(context.Background(), priceAssessment())
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Complete())
			assert.Equal(t, tt.wantFallback, testutil.ToFloat64(metrics.ExplanationFallback))
		})
	}
}

func TestGenerativeExplainer_Prompt(t *testing.T) {
	client := &fakeLLM{response: `{"title":"t","description":"d","aiExplanation":"a","recommendation":"r"}`}
	explainer := NewGenerativeExplainer(client, NewTemplateExplainer("$"), WithExplainerLogger(discardLogger()))

	explainer.Explain(context.Background(), priceAssessment())

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Type: price_increase")
	assert.Contains(t, prompt, "Merchant: Netflix")
	assert.Contains(t, prompt, "Monthly Impact: $150")
	assert.Contains(t, prompt, "Yearly Impact: $1800")
	assert.Contains(t, prompt, `"percentageChange":30`)
}

func TestGenerativeExplainer_NilMetrics(t *testing.T) {
	explainer := NewGenerativeExplainer(&fakeLLM{err: errors.New("boom")}, nil, WithExplainerLogger(discardLogger()))

	got := explainer.Explain(context.Background(), priceAssessment())
	assert.Equal(t, "Netflix Price Increase Detected", got.Title)
}
