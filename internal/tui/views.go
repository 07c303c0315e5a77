package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}

	sections := []string{
		m.theme.Title.Render(fmt.Sprintf("Subscription alerts (%d pending)", len(m.pending))),
	}

	if len(m.pending) == 0 {
		sections = append(sections, m.theme.StatusSuccess.Render("Nothing to review. All alerts are handled."))
	} else {
		sections = append(sections, m.renderList())
		if alert, ok := m.Selected(); ok {
			sections = append(sections, m.renderDetail(alert))
		}
	}

	sections = append(sections, m.renderStatusBar(), m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Subscription Sentinel"),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Loading pending alerts..."),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// listHeight is the number of alert rows that fit next to the detail box and help.
func (m Model) listHeight() int {
	return max(m.height-16, 3)
}

func (m Model) renderList() string {
	rows := m.listHeight()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.pending))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		a := m.pending[i]
		line := fmt.Sprintf("%-8s %-28s %s", strings.ToUpper(string(a.Severity)), truncate(a.Merchant, 28), a.Title)
		line = truncate(line, max(m.width-4, 20))
		if i == m.cursor {
			lines = append(lines, m.theme.Selected.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+m.theme.Severity(a.Severity).Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail(a model.Alert) string {
	var b strings.Builder
	b.WriteString(m.theme.Bold.Render(a.Title))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("%s · %s · %s", a.Merchant, a.Type, a.Severity)))
	b.WriteString("\n\n")
	b.WriteString(a.Description)
	b.WriteString("\n\n")
	if a.Recommendation != "" {
		b.WriteString(m.theme.StatusInfo.Render("Recommendation: "))
		b.WriteString(a.Recommendation)
		b.WriteString("\n")
	}
	if a.FinancialImpact.Monthly > 0 || a.FinancialImpact.Yearly > 0 {
		b.WriteString(fmt.Sprintf("Impact: %s%s/month, %s%s/year",
			m.currency, money.Format(a.FinancialImpact.Monthly),
			m.currency, money.Format(a.FinancialImpact.Yearly)))
	}

	width := max(m.width-4, 20)
	return m.theme.RoundedBox.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderStatusBar() string {
	switch {
	case m.lastError != nil:
		return m.theme.StatusError.Render("Error: " + m.lastError.Error())
	case m.busy:
		return m.theme.StatusWarning.Render("Applying...")
	case m.status != "":
		return m.theme.StatusSuccess.Render(fmt.Sprintf("%s (%d reviewed)", m.status, m.reviewed))
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(fmt.Sprintf("%d reviewed", m.reviewed))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
