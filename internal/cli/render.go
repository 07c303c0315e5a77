package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/Veraticus/subscription-sentinel/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// newTable returns a table with the shared header and cell styles. styleCell may
// override the style of a data cell.
func newTable(styleCell func(row, col int) (lipgloss.Style, bool)) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if styleCell != nil {
				if s, ok := styleCell(row, col); ok {
					return s.Padding(0, 1)
				}
			}
			return TableCellStyle
		})
}

// ShortID returns the first eight characters of an identifier.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderAlerts renders alerts as a table. Amounts are prefixed with currency.
func RenderAlerts(alerts []model.Alert, currency string) string {
	if len(alerts) == 0 {
		return SubtleStyle.Render("No alerts.")
	}

	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			ShortID(a.ID),
			string(a.Severity),
			string(a.Type),
			a.Merchant,
			a.Title,
			currency + money.Format(a.FinancialImpact.Yearly),
			string(a.Status),
		})
	}

	return newTable(func(row, col int) (lipgloss.Style, bool) {
		if col == 1 {
			return SeverityStyle(alerts[row].Severity), true
		}
		return lipgloss.Style{}, false
	}).
		Headers("ID", "SEVERITY", "TYPE", "MERCHANT", "TITLE", "YEARLY", "STATUS").
		Rows(rows...).
		Render()
}

// RenderAlertDetail renders one alert with its explanation.
func RenderAlertDetail(a *model.Alert, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", SeverityStyle(a.Severity).Render(strings.ToUpper(string(a.Severity))), BoldStyle.Render(a.Title))
	fmt.Fprintf(&b, "%s\n\n", SubtleStyle.Render(fmt.Sprintf("%s · %s · %s · %s", a.ID, a.Merchant, a.Type, a.Status)))
	fmt.Fprintf(&b, "%s\n\n", a.Description)
	if a.AIExplanation != "" {
		fmt.Fprintf(&b, "%s %s\n\n", RobotIcon, a.AIExplanation)
	}
	if a.Recommendation != "" {
		fmt.Fprintf(&b, "%s %s\n", InfoStyle.Render("Recommendation:"), a.Recommendation)
	}
	fmt.Fprintf(&b, "Impact: %s%s/month, %s%s/year",
		currency, money.Format(a.FinancialImpact.Monthly),
		currency, money.Format(a.FinancialImpact.Yearly))
	return RenderBox(BellIcon+" Alert", b.String())
}

// RenderSubscriptions renders subscriptions as a table.
func RenderSubscriptions(subs []model.Subscription, currency string) string {
	if len(subs) == 0 {
		return SubtleStyle.Render("No subscriptions.")
	}

	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		lastUsed := "never"
		if s.LastUsedDate != nil {
			lastUsed = s.LastUsedDate.Format(time.DateOnly)
		}
		autoPay := "off"
		if s.AutoPayEnabled {
			autoPay = "on"
		}
		rows = append(rows, []string{
			ShortID(s.ID),
			s.Merchant,
			s.Category,
			currency + money.Format(s.CurrentAmount),
			string(s.BillingCycle),
			string(s.Status),
			autoPay,
			s.NextBillingDate.Format(time.DateOnly),
			lastUsed,
		})
	}

	return newTable(func(row, col int) (lipgloss.Style, bool) {
		if col == 5 && subs[row].Status != model.SubscriptionActive {
			return SubtleStyle, true
		}
		return lipgloss.Style{}, false
	}).
		Headers("ID", "MERCHANT", "CATEGORY", "AMOUNT", "CYCLE", "STATUS", "AUTO-PAY", "NEXT BILLING", "LAST USED").
		Rows(rows...).
		Render()
}

// RenderAgents renders per-stage liveness as a table.
func RenderAgents(statuses []model.AgentStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		lastRun := "never"
		if !s.LastRun.IsZero() {
			lastRun = s.LastRun.Format(time.DateTime)
		}
		rows = append(rows, []string{s.Name, string(s.Status), fmt.Sprint(s.Observations), lastRun})
	}

	return newTable(func(row, col int) (lipgloss.Style, bool) {
		if col == 1 && statuses[row].Status == model.AgentProcessing {
			return WarningStyle, true
		}
		return lipgloss.Style{}, false
	}).
		Headers("AGENT", "STATUS", "OBSERVATIONS", "LAST RUN").
		Rows(rows...).
		Render()
}

// RenderResult summarizes a pipeline run: its execution log followed by the
// recommendations it produced.
func RenderResult(res *pipeline.Result, currency string) string {
	var b strings.Builder
	for _, line := range res.ExecutionLog {
		b.WriteString(SubtleStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !res.Success {
		b.WriteString(FormatError("Pipeline failed: " + res.Error))
		return b.String()
	}

	alerts := make([]model.Alert, 0, len(res.Recommendations))
	for _, rec := range res.Recommendations {
		alerts = append(alerts, rec.Alert)
	}
	b.WriteString(RenderAlerts(alerts, currency))
	b.WriteString("\n\n")
	b.WriteString(FormatSuccess(fmt.Sprintf("%d recommendations, %d new alerts, potential savings %s%s/year",
		len(res.Recommendations), res.NewAlerts, currency, money.Format(res.TotalPotentialSavings))))
	return b.String()
}

// RenderDashboard renders the overview figures.
func RenderDashboard(d *service.DashboardSummary, currency string) string {
	lines := []string{
		fmt.Sprintf("Subscriptions:      %d (%d active)", d.TotalSubscriptions, d.ActiveSubscriptions),
		fmt.Sprintf("Monthly spend:      %s%s", currency, money.Format(d.MonthlySpend)),
		fmt.Sprintf("Yearly projection:  %s%s", currency, money.Format(d.YearlyProjectedSpend)),
		fmt.Sprintf("Pending alerts:     %d", d.PendingAlerts),
		fmt.Sprintf("Potential savings:  %s%s/year", currency, money.Format(d.PotentialSavings)),
		"Risk:               " + SeverityStyle(d.RiskScore).Render(string(d.RiskScore)),
	}
	return RenderBox(ChartIcon+" Dashboard", strings.Join(lines, "\n"))
}
