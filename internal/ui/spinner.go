package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// frameInterval is the animation period.
const frameInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Spinner shows an animated label while a blocking call runs, then a final
// ✓ or ✗ line with the elapsed time. When the writer is not a terminal the
// animation is skipped and only the final line is written.
type Spinner struct {
	mu        sync.Mutex
	label     string
	state     SpinnerState
	frame     int
	startTime time.Time
	w         io.Writer
	animated  bool
	stop      chan struct{}
	done      chan struct{}
	lastWidth int
}

// NewSpinner creates a spinner that writes to stdout.
func NewSpinner(label string) *Spinner {
	return NewSpinnerTo(os.Stdout, label)
}

// NewSpinnerTo creates a spinner that writes to w. Animation is enabled only
// when w is a terminal.
func NewSpinnerTo(w io.Writer, label string) *Spinner {
	f, isFile := w.(*os.File)
	return &Spinner{
		label:    label,
		state:    SpinnerPending,
		w:        w,
		animated: isFile && IsTerminal(f),
	}
}

// Start begins the animation. Calling Start twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.state == SpinnerInProgress {
		s.mu.Unlock()
		return
	}
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	if !s.animated {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.renderFrameLocked()
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go s.animate(stop, done)
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success() {
	s.finish(SpinnerSuccess)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail() {
	s.finish(SpinnerFailed)
}

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Label returns the spinner's label.
func (s *Spinner) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

func (s *Spinner) finish(state SpinnerState) {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	s.clearLocked()

	symbol, style := SymbolSuccess, SuccessStyle()
	if state == SpinnerFailed {
		symbol, style = SymbolFail, ErrorStyle()
	}
	elapsed := time.Duration(0)
	if !s.startTime.IsZero() {
		elapsed = time.Since(s.startTime)
	}
	fmt.Fprintf(s.w, "%s %s %s\n", style.Render(symbol), s.label, MutedStyle().Render(FormatDuration(elapsed)))
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.renderFrameLocked()
			s.mu.Unlock()
		}
	}
}

// renderFrameLocked redraws the current frame. Must be called with s.mu held.
func (s *Spinner) renderFrameLocked() {
	color := spinnerColors[(s.frame/2)%len(spinnerColors)]
	line := fmt.Sprintf("%s %s...", lipgloss.NewStyle().Foreground(color).Render(spinnerFrames[s.frame]), s.label)
	s.clearLocked()
	fmt.Fprint(s.w, "\r"+line)
	s.lastWidth = lipgloss.Width(line)
}

func (s *Spinner) clearLocked() {
	if s.lastWidth == 0 {
		return
	}
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.lastWidth)+"\r")
	s.lastWidth = 0
}

// FormatDuration formats a duration for display (e.g., "0.05s", "1.2s").
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
