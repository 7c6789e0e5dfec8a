package model

import "time"

// RenderSubmitRequest starts a render. Exactly one of Timeline or Project
// must be present: a prebuilt timeline is rendered as-is, a project is
// flattened through the timeline builder first.
type RenderSubmitRequest struct {
	CompositionID string    `json:"compositionId" validate:"required"`
	Timeline      *Timeline `json:"timeline,omitempty"`
	Project       *Project  `json:"project,omitempty"`
	OutputFormat  string    `json:"outputFormat" validate:"required,oneof=mp4 webm"`
	Codec         string    `json:"codec" validate:"required"`
	Quality       int       `json:"quality" validate:"min=0,max=100"`
	FrameRate     int       `json:"fps,omitempty" validate:"omitempty,gt=0"`
	Width         int       `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height        int       `json:"height,omitempty" validate:"omitempty,gt=0"`
}

// Options collapses the request's encode parameters into RenderOptions.
func (r *RenderSubmitRequest) Options() RenderOptions {
	return RenderOptions{
		OutputFormat: r.OutputFormat,
		Codec:        r.Codec,
		Quality:      r.Quality,
		FrameRate:    r.FrameRate,
		Width:        r.Width,
		Height:       r.Height,
	}
}

// RenderSubmitResponse acknowledges an accepted render request.
type RenderSubmitResponse struct {
	RenderID  string    `json:"renderId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// RenderStatusResponse is the poll result for a render job.
type RenderStatusResponse struct {
	RenderID    string     `json:"renderId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	OutputURL   string     `json:"outputUrl,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// RenderCancelResponse acknowledges a cancellation.
type RenderCancelResponse struct {
	RenderID string    `json:"renderId"`
	Status   JobStatus `json:"status"`
	Success  bool      `json:"success"`
}

// TimelineBuildRequest builds (and validates) a timeline preview from a project.
type TimelineBuildRequest struct {
	Project  *Project        `json:"project" validate:"required"`
	Settings *RenderSettings `json:"settings,omitempty"`
}

// TimelineBuildResponse carries the built timeline plus its validation report.
type TimelineBuildResponse struct {
	Timeline *Timeline `json:"timeline"`
	Valid    bool      `json:"valid"`
	Issues   []string  `json:"issues,omitempty"`
}

// TimelineValidateRequest checks a project/timeline pair for structural issues.
type TimelineValidateRequest struct {
	Project  *Project  `json:"project,omitempty"`
	Timeline *Timeline `json:"timeline" validate:"required"`
}

// ValidationReport accumulates every violation found rather than failing fast.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}
