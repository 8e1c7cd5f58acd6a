// Package progress shows what a long stage is doing on the error stream.
//
// A stage is begun with a label and an optional total, stepped once per
// unit of work and finished with Done or Fail. When progress is disabled,
// or the stream is not a terminal, New returns an indicator that draws
// nothing, so callers never check.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

// Progress reports the state of one stage at a time.
type Progress interface {
	// Begin starts a stage. total <= 0 means the amount of work is unknown.
	Begin(label string, total int)

	// Step records one finished unit, described by item.
	Step(item string)

	// Done ends the stage and leaves summary on screen. An empty summary
	// removes the indicator.
	Done(summary string)

	// Fail ends the stage with a failure line.
	Fail(summary string)
}

// Config configures New.
type Config struct {
	// Enabled turns the indicator on.
	Enabled bool

	// Writer is where the indicator is drawn. Defaults to os.Stderr.
	Writer io.Writer
}

// New returns a spinner, or a silent indicator when cfg disables progress.
func New(cfg *Config) Progress {
	if cfg == nil || !cfg.Enabled {
		return NewNoopProgress()
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	return &Spinner{writer: w}
}

// Spinner draws a pterm spinner whose text counts finished steps.
type Spinner struct {
	writer io.Writer

	mu      sync.Mutex
	printer *pterm.SpinnerPrinter
	label   string
	total   int
	done    int
}

// Begin starts the spinner. A stage still running is stopped first.
func (s *Spinner) Begin(label string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.label, s.total, s.done = label, total, 0

	printer, err := pterm.DefaultSpinner.
		WithWriter(s.writer).
		WithRemoveWhenDone(true).
		Start(s.textLocked(""))
	if err != nil {
		return
	}
	s.printer = printer
}

// Step advances the counter.
func (s *Spinner) Step(item string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.printer == nil {
		return
	}
	s.done++
	s.printer.UpdateText(s.textLocked(item))
}

// Done stops the spinner.
func (s *Spinner) Done(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.printer == nil {
		return
	}
	if summary == "" {
		s.stopLocked()
		return
	}
	s.printer.Success(summary)
	s.printer = nil
}

// Fail stops the spinner with a failure line.
func (s *Spinner) Fail(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.printer == nil {
		return
	}
	s.printer.Fail(summary)
	s.printer = nil
}

func (s *Spinner) stopLocked() {
	if s.printer != nil {
		_ = s.printer.Stop()
		s.printer = nil
	}
}

// textLocked renders "label (done/total): item".
func (s *Spinner) textLocked(item string) string {
	text := s.label
	switch {
	case s.total > 0:
		text = fmt.Sprintf("%s (%d/%d)", text, s.done, s.total)
	case s.done > 0:
		text = fmt.Sprintf("%s (%d)", text, s.done)
	}
	if item != "" {
		text += ": " + item
	}
	return text
}

// NoopProgress draws nothing.
type NoopProgress struct{}

// NewNoopProgress creates a silent indicator.
func NewNoopProgress() *NoopProgress {
	return &NoopProgress{}
}

func (*NoopProgress) Begin(string, int) {}
func (*NoopProgress) Step(string)       {}
func (*NoopProgress) Done(string)       {}
func (*NoopProgress) Fail(string)       {}
