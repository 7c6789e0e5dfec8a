package render

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/reelsmith/api/internal/model"
)

// FailoverBackend wraps the remote backend and swaps a task to the local
// simulated fallback when the service is unreachable (ErrBackendUnavailable).
// A reachable backend that rejects the work is not retried: its error
// surfaces and fails the job. The swap is scoped to that task only; other
// in-flight jobs keep using the remote service.
type FailoverBackend struct {
	remote   Backend
	fallback Backend

	mu    sync.Mutex
	tasks map[string]*failoverTask
}

type failoverTask struct {
	backend Backend
	// submission inputs are retained so a mid-job poll failure can
	// re-submit the same work to the fallback.
	phase    Phase
	timeline *model.Timeline
	options  model.RenderOptions
}

func NewFailoverBackend(remote, fallback Backend) *FailoverBackend {
	return &FailoverBackend{
		remote:   remote,
		fallback: fallback,
		tasks:    make(map[string]*failoverTask),
	}
}

func (b *FailoverBackend) Name() string { return "failover" }

func (b *FailoverBackend) Submit(ctx context.Context, phase Phase, tl *model.Timeline, opts model.RenderOptions) (string, error) {
	taskID, err := b.remote.Submit(ctx, phase, tl, opts)
	backend := b.remote
	if err != nil {
		if !errors.Is(err, ErrBackendUnavailable) {
			return "", err
		}
		log.Printf("[RenderFailover] remote submit failed (%v), falling back to %s rendering", err, b.fallback.Name())
		taskID, err = b.fallback.Submit(ctx, phase, tl, opts)
		if err != nil {
			return "", err
		}
		backend = b.fallback
	}

	b.mu.Lock()
	b.tasks[taskID] = &failoverTask{backend: backend, phase: phase, timeline: tl, options: opts}
	b.mu.Unlock()
	return taskID, nil
}

func (b *FailoverBackend) Poll(ctx context.Context, taskID string) (*TaskStatus, error) {
	b.mu.Lock()
	task, ok := b.tasks[taskID]
	b.mu.Unlock()
	if !ok {
		// Unknown task: hand straight to the remote backend.
		return b.remote.Poll(ctx, taskID)
	}

	status, err := task.backend.Poll(ctx, taskID)
	if err != nil && task.backend == b.remote && errors.Is(err, ErrBackendUnavailable) {
		// Unreachable service mid-job: re-submit the same phase to the
		// fallback and serve the remainder of this task from it.
		log.Printf("[RenderFailover] remote poll failed for task %s (%v), falling back to %s rendering",
			taskID, err, b.fallback.Name())

		fallbackID, subErr := b.fallback.Submit(ctx, task.phase, task.timeline, task.options)
		if subErr != nil {
			return nil, err
		}

		b.mu.Lock()
		b.tasks[taskID] = &failoverTask{backend: &aliasedBackend{b.fallback, fallbackID}, phase: task.phase, timeline: task.timeline, options: task.options}
		b.mu.Unlock()

		return b.Poll(ctx, taskID)
	}

	if err == nil && (status.State == TaskStateCompleted || status.State == TaskStateFailed) {
		b.mu.Lock()
		delete(b.tasks, taskID)
		b.mu.Unlock()
	}
	return status, err
}

// aliasedBackend maps the original task id onto the id the fallback
// assigned during a mid-job swap.
type aliasedBackend struct {
	Backend
	actualID string
}

func (a *aliasedBackend) Poll(ctx context.Context, _ string) (*TaskStatus, error) {
	return a.Backend.Poll(ctx, a.actualID)
}
