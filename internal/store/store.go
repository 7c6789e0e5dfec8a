package store

import (
	"context"
	"errors"
	"time"

	"github.com/reelsmith/api/internal/model"
)

var (
	// ErrNotFound is returned when no job exists under the given id.
	ErrNotFound = errors.New("render job not found")
	// ErrTerminal is returned when a mutation is attempted on a completed
	// or failed job. The mutation is reported but never applied, which
	// guards against a poll loop finishing after a cancel already landed.
	ErrTerminal = errors.New("render job is already terminal")
)

// CancelledMessage distinguishes user cancellation from genuine backend
// failures; both share the failed status.
const CancelledMessage = "cancelled by user"

// DefaultMaxAge is how long job records (and their output artifacts)
// are retained before the sweep evicts them.
const DefaultMaxAge = 24 * time.Hour

// ArtifactRemover deletes a rendered output artifact by its URL. The
// storage client implements it; the sweep calls it for evicted jobs.
type ArtifactRemover interface {
	RemoveArtifact(ctx context.Context, url string) error
}

// JobStore owns the lifetime of render job records. A single job's record
// is the unit of consistency: per-id mutations are atomic with respect to
// interleaved reads, and there are no cross-job transactions.
type JobStore interface {
	// Create registers a new job record. The job must be in pending state.
	Create(ctx context.Context, job *model.RenderJob) error

	// Get returns a copy of the job record, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.RenderJob, error)

	// Update applies mutate to the job record atomically. Terminal jobs
	// reject the mutation with ErrTerminal. Progress never decreases.
	Update(ctx context.Context, id string, mutate func(job *model.RenderJob)) (*model.RenderJob, error)

	// Cancel moves a pending or rendering job to failed with the
	// cancellation message. Terminal jobs return ErrTerminal.
	Cancel(ctx context.Context, id string) (*model.RenderJob, error)

	// Sweep evicts jobs older than maxAge, deleting any output artifact
	// they produced, and returns the number of evicted jobs.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}
