package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/reelsmith/api/internal/model"
)

// MemoryStore is an in-process JobStore guarded by a single mutex. It backs
// tests (with an injectable clock) and degraded deployments without Redis.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*model.RenderJob
	artifacts ArtifactRemover

	// Now is the clock used for timestamps and sweep age checks.
	// Tests replace it with a deterministic one.
	Now func() time.Time
}

func NewMemoryStore(artifacts ArtifactRemover) *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[string]*model.RenderJob),
		artifacts: artifacts,
		Now:       time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, job *model.RenderJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	stored := cloneJob(job)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.jobs[stored.ID] = stored
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(job *model.RenderJob)) (*model.RenderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if job.Status.Terminal() {
		return cloneJob(job), ErrTerminal
	}

	prevProgress := job.Progress
	mutate(job)
	if job.Progress < prevProgress {
		job.Progress = prevProgress
	}
	job.UpdatedAt = s.Now()
	return cloneJob(job), nil
}

func (s *MemoryStore) Cancel(ctx context.Context, id string) (*model.RenderJob, error) {
	return s.Update(ctx, id, func(job *model.RenderJob) {
		job.Status = model.JobStatusFailed
		job.Error = CancelledMessage
		completed := s.Now()
		job.CompletedAt = &completed
	})
}

func (s *MemoryStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.Now().Add(-maxAge)
	evicted := 0
	for id, job := range s.jobs {
		if !job.CreatedAt.Before(cutoff) {
			continue
		}
		if job.OutputURL != "" && s.artifacts != nil {
			if err := s.artifacts.RemoveArtifact(ctx, job.OutputURL); err != nil {
				log.Printf("Failed to remove artifact for job %s: %v", id, err)
			}
		}
		delete(s.jobs, id)
		evicted++
	}
	return evicted, nil
}

// cloneJob copies a job record so callers never share the stored pointer.
func cloneJob(job *model.RenderJob) *model.RenderJob {
	clone := *job
	if job.CompletedAt != nil {
		completed := *job.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}
