package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

const actionTimeout = 10 * time.Second

// loadAlerts loads pending alerts from storage.
func (m Model) loadAlerts() tea.Cmd {
	alerts, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		all, err := alerts.GetAlerts(ctx)
		if err != nil {
			return alertsLoadedMsg{err: fmt.Errorf("failed to load alerts: %w", err)}
		}

		pending := make([]model.Alert, 0, len(all))
		for _, a := range all {
			if a.Status == model.AlertPending {
				pending = append(pending, a)
			}
		}
		return alertsLoadedMsg{alerts: pending}
	}
}

// resolveAlert keeps or cancels the subscription behind an alert.
func (m Model) resolveAlert(alert model.Alert, action approval.Action) tea.Cmd {
	reviewer, ctx := m.reviewer, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		res, err := reviewer.Resolve(ctx, alert.ID, action)
		if err != nil {
			return actionDoneMsg{alertID: alert.ID, err: err}
		}
		status := fmt.Sprintf("Kept %s", res.Merchant)
		if action == approval.ActionCancel {
			status = fmt.Sprintf("Cancelled %s", res.Merchant)
		}
		return actionDoneMsg{alertID: alert.ID, status: status}
	}
}

// dismissAlert dismisses an alert without touching its subscription.
func (m Model) dismissAlert(alert model.Alert) tea.Cmd {
	reviewer, ctx := m.reviewer, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if _, err := reviewer.Dismiss(ctx, alert.ID); err != nil {
			return actionDoneMsg{alertID: alert.ID, err: err}
		}
		return actionDoneMsg{alertID: alert.ID, status: "Dismissed: " + alert.Title}
	}
}
