package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

// StageProgress draws a progress bar over the pipeline stages.
type StageProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

var _ pipeline.StageObserver = (*StageProgress)(nil)

// NewStageProgress creates a progress reporter writing to w.
func NewStageProgress(w io.Writer) *StageProgress {
	return &StageProgress{writer: w}
}

// StageStarted implements pipeline.StageObserver.
func (p *StageProgress) StageStarted(agent string, step, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	p.bar.Describe(fmt.Sprintf("[cyan](%d/%d)[reset] %s", step, total, agent))
}

// StageFinished implements pipeline.StageObserver.
func (p *StageProgress) StageFinished(agent string, outputs int, err error) {
	if p.bar == nil {
		return
	}
	if err != nil {
		p.bar.Describe(fmt.Sprintf("[red]%s failed[reset]", agent))
		if _, werr := fmt.Fprintln(p.writer); werr != nil {
			slog.Warn("Failed to write progress output", "error", werr)
		}
		return
	}
	if addErr := p.bar.Add(1); addErr != nil {
		slog.Warn("Failed to update progress bar", "error", addErr)
	}
}

// Finish completes the bar when later stages were skipped.
func (p *StageProgress) Finish() {
	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
