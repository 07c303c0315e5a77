package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the review screen until the user quits or ctx is cancelled, and returns
// how many alerts were acted on.
func Run(ctx context.Context, cfg Config) (int, error) {
	if cfg.Alerts == nil {
		return 0, fmt.Errorf("alert source is required")
	}
	if cfg.Reviewer == nil {
		return 0, fmt.Errorf("reviewer is required")
	}

	p := tea.NewProgram(NewModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(Model); ok {
		return m.Reviewed(), nil
	}
	return 0, nil
}
