package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/Veraticus/subscription-sentinel/internal/service"
)

// GetDashboardSummary aggregates spend across active subscriptions and savings across
// pending alerts.
func (s *SQLiteStorage) GetDashboardSummary(ctx context.Context) (*service.DashboardSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	subs, err := s.GetSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	alerts, err := s.GetAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	return Summarize(subs, alerts), nil
}

// Summarize computes dashboard figures from already loaded records.
func Summarize(subs []model.Subscription, alerts []model.Alert) *service.DashboardSummary {
	summary := &service.DashboardSummary{
		TotalSubscriptions: len(subs),
		RiskScore:          model.SeverityLow,
	}

	var monthly float64
	for i := range subs {
		if !subs[i].IsActive() {
			continue
		}
		summary.ActiveSubscriptions++
		monthly += money.Monthly(subs[i].CurrentAmount, subs[i].BillingCycle)
	}

	var savings float64
	for i := range alerts {
		if alerts[i].Status != model.AlertPending {
			continue
		}
		summary.PendingAlerts++
		savings += alerts[i].FinancialImpact.Yearly
		switch alerts[i].Severity {
		case model.SeverityHigh:
			summary.RiskScore = model.SeverityHigh
		case model.SeverityMedium:
			if summary.RiskScore != model.SeverityHigh {
				summary.RiskScore = model.SeverityMedium
			}
		}
	}

	summary.MonthlySpend = money.Round(monthly)
	summary.YearlyProjectedSpend = money.Round(monthly * 12)
	summary.PotentialSavings = money.Round(savings)
	return summary
}
