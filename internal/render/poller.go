package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	// DefaultPollInterval is the fixed wait between backend polls.
	DefaultPollInterval = time.Second
	// DefaultMaxPollAttempts caps polling at roughly five minutes.
	DefaultMaxPollAttempts = 300

	// Backend-reported progress is remapped into this sub-range of the
	// phase-local scale; submission ack owns the range below it and the
	// final wrap-up the range above.
	pollWindowLow  = 30
	pollWindowHigh = 90
)

// ErrPollTimeout is returned when a task does not reach a terminal state
// within the poll ceiling.
var ErrPollTimeout = errors.New("render task polling timed out")

// StatusPoller repeatedly polls a backend task until it reaches a terminal
// state, the attempt ceiling is hit, or the progress callback aborts.
type StatusPoller struct {
	backend     Backend
	interval    time.Duration
	maxAttempts int
}

func NewStatusPoller(backend Backend) *StatusPoller {
	return &StatusPoller{
		backend:     backend,
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxPollAttempts,
	}
}

// NewStatusPollerWithLimits overrides interval and attempt ceiling; tests
// use millisecond intervals.
func NewStatusPollerWithLimits(backend Backend, interval time.Duration, maxAttempts int) *StatusPoller {
	return &StatusPoller{backend: backend, interval: interval, maxAttempts: maxAttempts}
}

// PollUntilTerminal drives one task to completion and returns its output
// location. Backend progress (0-100) is remapped into the [30,90] window
// of the phase-local scale before each report. A non-nil error from report
// stops polling immediately without completing the remaining attempts;
// that is how job cancellation reaches the loop.
func (p *StatusPoller) PollUntilTerminal(ctx context.Context, taskID string, report func(progress int) error) (string, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := p.backend.Poll(ctx, taskID)
		if err != nil {
			return "", fmt.Errorf("poll attempt %d: %w", attempt, err)
		}

		if report != nil {
			if err := report(remapProgress(status.Progress)); err != nil {
				log.Printf("[StatusPoller] task %s aborted after attempt %d: %v", taskID, attempt, err)
				return "", err
			}
		}

		switch status.State {
		case TaskStateCompleted:
			return status.OutputLocation, nil
		case TaskStateFailed:
			// Backend failure text passes through verbatim.
			if status.Error != "" {
				return "", errors.New(status.Error)
			}
			return "", errors.New("render task failed")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrPollTimeout, p.maxAttempts)
}

// remapProgress maps backend progress 0-100 into the [30,90] poll window.
func remapProgress(progress int) int {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return pollWindowLow + progress*(pollWindowHigh-pollWindowLow)/100
}
