package render

import (
	"context"
	"errors"

	"github.com/reelsmith/api/internal/model"
)

// Phase identifies one stage of the two-phase render pipeline.
type Phase string

const (
	// PhaseBundle prepares the timeline's assets for encoding.
	PhaseBundle Phase = "bundle"
	// PhaseEncode produces the final output artifact.
	PhaseEncode Phase = "encode"
)

// Task states reported by a backend poll.
const (
	TaskStateQueued    = "queued"
	TaskStateRunning   = "running"
	TaskStateCompleted = "completed"
	TaskStateFailed    = "failed"
)

// ErrBackendUnavailable wraps submission/poll failures that trigger the
// fallback to simulated rendering rather than failing the job.
var ErrBackendUnavailable = errors.New("render backend unavailable")

// TaskStatus is one poll result for a backend task.
type TaskStatus struct {
	Progress       int    `json:"progress"` // 0-100
	State          string `json:"state"`
	OutputLocation string `json:"outputLocation,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Backend is the strategy interface over "submit work, poll progress".
// Two implementations exist: the remote rendering service and the local
// simulated fallback, selected per job by the failover adapter.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Submit hands one phase of a timeline to the backend and returns an
	// opaque task id for polling.
	Submit(ctx context.Context, phase Phase, tl *model.Timeline, opts model.RenderOptions) (string, error)

	// Poll reports the current progress of a submitted task.
	Poll(ctx context.Context, taskID string) (*TaskStatus, error)
}
