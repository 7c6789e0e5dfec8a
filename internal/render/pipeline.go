package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/reelsmith/api/internal/model"
	"github.com/reelsmith/api/internal/store"
)

// phaseWeight maps one phase's local 0-100 progress into its slice of the
// overall job scale. Additional phases (say a future upload phase) are
// added by resizing this table, not by rewriting formulas.
type phaseWeight struct {
	phase Phase
	lo    int
	hi    int
}

var phaseWeights = []phaseWeight{
	{PhaseBundle, 0, 50},
	{PhaseEncode, 50, 100},
}

// Notifier pushes job updates to live subscribers. The websocket hub
// implements it; a nil notifier is valid.
type Notifier interface {
	RenderProgress(renderID string, progress int, status model.JobStatus)
	RenderComplete(renderID, outputURL string)
	RenderFailed(renderID, message string)
}

// Pipeline drives one render job through the bundle and encode phases,
// updating the job record as it goes. Run must be invoked at most once per
// job; the store enforces this by refusing to move a non-pending job back
// into rendering.
type Pipeline struct {
	store    store.JobStore
	backend  Backend
	poller   *StatusPoller
	notifier Notifier
}

func NewPipeline(jobStore store.JobStore, backend Backend, poller *StatusPoller, notifier Notifier) *Pipeline {
	return &Pipeline{
		store:    jobStore,
		backend:  backend,
		poller:   poller,
		notifier: notifier,
	}
}

// Run executes the job to a terminal state. Cancellation is cooperative:
// the job record is consulted at every progress report, and an observed
// terminal state stops further work without assuming the backend can be
// interrupted mid-encode. Run returns nil when the job ended by
// cancellation, since the cancel operation already recorded the outcome.
func (p *Pipeline) Run(ctx context.Context, jobID string, tl *model.Timeline, opts model.RenderOptions) error {
	if _, err := p.store.Update(ctx, jobID, func(job *model.RenderJob) {
		job.Status = model.JobStatusRendering
	}); err != nil {
		if errors.Is(err, store.ErrTerminal) {
			log.Printf("Render job %s was cancelled before work started", jobID)
			return nil
		}
		return fmt.Errorf("failed to start render job %s: %w", jobID, err)
	}

	var outputURL string
	for _, pw := range phaseWeights {
		taskID, err := p.backend.Submit(ctx, pw.phase, tl, opts)
		if err != nil {
			return p.fail(ctx, jobID, err)
		}

		out, err := p.poller.PollUntilTerminal(ctx, taskID, func(local int) error {
			return p.report(ctx, jobID, pw, local)
		})
		if err != nil {
			if errors.Is(err, store.ErrTerminal) {
				log.Printf("Render job %s cancelled during %s phase", jobID, pw.phase)
				return nil
			}
			return p.fail(ctx, jobID, err)
		}

		if err := p.report(ctx, jobID, pw, 100); err != nil {
			if errors.Is(err, store.ErrTerminal) {
				log.Printf("Render job %s cancelled at end of %s phase", jobID, pw.phase)
				return nil
			}
			return p.fail(ctx, jobID, err)
		}

		if pw.phase == PhaseEncode {
			outputURL = out
		}
	}

	job, err := p.store.Update(ctx, jobID, func(job *model.RenderJob) {
		job.Status = model.JobStatusCompleted
		job.Progress = 100
		job.OutputURL = outputURL
		completed := time.Now()
		job.CompletedAt = &completed
	})
	if err != nil {
		if errors.Is(err, store.ErrTerminal) {
			return nil
		}
		return err
	}

	if p.notifier != nil {
		p.notifier.RenderComplete(jobID, job.OutputURL)
	}
	log.Printf("Render job %s completed: %s", jobID, job.OutputURL)
	return nil
}

// report maps a phase-local progress value onto the overall 0-100 scale
// and writes it to the job record. A terminal record (a cancel landed)
// surfaces as store.ErrTerminal, which aborts the poll loop.
func (p *Pipeline) report(ctx context.Context, jobID string, pw phaseWeight, local int) error {
	overall := pw.lo + int(math.Round(float64(local)*float64(pw.hi-pw.lo)/100))

	job, err := p.store.Update(ctx, jobID, func(job *model.RenderJob) {
		job.Progress = overall
	})
	if err != nil {
		return err
	}

	if p.notifier != nil {
		p.notifier.RenderProgress(jobID, job.Progress, job.Status)
	}
	return nil
}

// fail records the error and leaves progress at its last reported value.
func (p *Pipeline) fail(ctx context.Context, jobID string, cause error) error {
	_, err := p.store.Update(ctx, jobID, func(job *model.RenderJob) {
		job.Status = model.JobStatusFailed
		job.Error = cause.Error()
		completed := time.Now()
		job.CompletedAt = &completed
	})
	if err != nil && !errors.Is(err, store.ErrTerminal) {
		log.Printf("Failed to mark render job %s as failed: %v", jobID, err)
	}

	if p.notifier != nil {
		p.notifier.RenderFailed(jobID, cause.Error())
	}
	log.Printf("Render job %s failed: %v", jobID, cause)
	return cause
}
