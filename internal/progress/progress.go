// Package progress renders pipeline completion to the terminal. It is purely
// observational and may be replaced with Noop in environments without a
// display surface.
package progress

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter observes pipeline completion.
type Reporter interface {
	Add(n int)
	Finish()
}

// Noop discards all progress updates.
type Noop struct{}

func (Noop) Add(int) {}
func (Noop) Finish() {}

// Bar renders a terminal progress bar showing elapsed time, a completion
// fraction, the current/total count and an estimated time remaining.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a progress bar for the given total number of records.
// It renders on stderr so the bar never mixes with record output.
func NewBar(total int) *Bar {
	return &Bar{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetDescription("verifying"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Add advances the bar by n completed records.
func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

// Finish completes the bar regardless of the current position.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
