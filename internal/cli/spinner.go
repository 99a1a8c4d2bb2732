package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// showElapsed is how long a stage runs before the spinner shows a timer.
// Script evaluation and Graphviz are usually far quicker.
const showElapsed = time.Second

// Spinner animates a status line on uiOut while a stage runs. It stops on
// Stop or when its context ends.
type Spinner struct {
	out     io.Writer
	message string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	start   time.Time

	mu       sync.Mutex
	width    int // printed width, for clearing
	started  bool
	stopped  chan struct{}
	stopOnce sync.Once
}

func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     uiOut,
		message: message,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.start = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	text := s.message
	if d := time.Since(s.start); d >= showElapsed {
		text += fmt.Sprintf(" (%ds)", int(d.Seconds()))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s %s", styleSpinner.Render(frame), StyleDim.Render(text))
	s.width = len(text) + 2
}

// Stop ends the animation, clears the line and returns the time since Start.
// It is safe to call more than once, and before Start.
func (s *Spinner) Stop() time.Duration {
	s.mu.Lock()
	started, start := s.started, s.start
	s.mu.Unlock()

	s.stopOnce.Do(s.cancel)
	if !started {
		return 0
	}
	<-s.stopped
	s.clearLine()
	return time.Since(start)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// StopWithSuccess stops the spinner and reports the stage with its duration.
func (s *Spinner) StopWithSuccess(format string, args ...any) {
	d := s.Stop()
	printSuccess("%s %s", fmt.Sprintf(format, args...), StyleDim.Render(d.Round(time.Millisecond).String()))
}

// StopWithError stops the spinner and reports a failure.
func (s *Spinner) StopWithError(format string, args ...any) {
	s.Stop()
	printError(format, args...)
}

// Cancelled reports whether the parent context ended, as opposed to Stop.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// stopFailed reports a failure unless the user interrupted the command.
func stopFailed(s *Spinner, format string, args ...any) {
	if s.Cancelled() {
		s.Stop()
		return
	}
	s.StopWithError(format, args...)
}
