// Package progress shows remote build status while waiting.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/dosanma1/cloudbuild-action/internal/console"
)

// Reporter receives status lines and is closed once the build resolves.
type Reporter interface {
	Report(line string)
	Close() error
}

// New returns a spinner on interactive terminals and a log reporter otherwise.
func New(w io.Writer, interactive bool) Reporter {
	if interactive {
		return NewSpinner(w)
	}
	return &LogReporter{}
}

// LogReporter writes every status line as an info message.
type LogReporter struct{}

func (r *LogReporter) Report(line string) {
	console.Info(line)
}

func (r *LogReporter) Close() error {
	return nil
}

// Spinner keeps the latest status line next to a spinner.
type Spinner struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Submitting build..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{out: w, bar: bar}
}

func (s *Spinner) Report(line string) {
	console.Debug(line)
	s.bar.Describe(line)
	_ = s.bar.Add(1)
}

func (s *Spinner) Close() error {
	if err := s.bar.Finish(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(s.out)
	return err
}
