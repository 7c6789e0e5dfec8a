package model

import "time"

// JobStatus is the lifecycle state of a render job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRendering JobStatus = "rendering"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed" // includes cancellation
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// RenderJob tracks one render request through the pipeline. Records are
// owned exclusively by the job store and mutated only through it.
type RenderJob struct {
	ID            string        `json:"id"`
	CompositionID string        `json:"compositionId"`
	Status        JobStatus     `json:"status"`
	Progress      int           `json:"progress"` // 0-100, non-decreasing until terminal
	OutputURL     string        `json:"outputUrl,omitempty"`
	Error         string        `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	Options       RenderOptions `json:"options"`
	// Timeline is the serialized render plan, kept with the record so a
	// durable store can re-submit after a crash.
	Timeline *Timeline `json:"timeline,omitempty"`
}

// RenderOptions are the encode parameters submitted with a job.
type RenderOptions struct {
	OutputFormat string `json:"outputFormat"`
	Codec        string `json:"codec"`
	Quality      int    `json:"quality"`
	FrameRate    int    `json:"fps,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}
