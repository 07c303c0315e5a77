package pipeline

import (
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/service"
)

// RunContext is built fresh for every run and passed to each stage. It is the only
// state shared between stages.
type RunContext struct {
	Now   time.Time
	Store service.PipelineStore
}

const day = 24 * time.Hour

// floorDays returns the whole number of days from 'from' to 'to', rounded towards
// negative infinity.
func floorDays(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}
