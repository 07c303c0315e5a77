package tui

import (
	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// Data loading messages.
type alertsLoadedMsg struct {
	err    error
	alerts []model.Alert
}

// actionDoneMsg reports the outcome of keep, cancel or dismiss on one alert.
type actionDoneMsg struct {
	err     error
	alertID string
	status  string
}
