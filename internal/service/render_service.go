package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/reelsmith/api/internal/model"
	"github.com/reelsmith/api/internal/store"
	"github.com/reelsmith/api/internal/timeline"
)

const (
	// TaskTypeRender is the asynq task type carrying a render job.
	TaskTypeRender = "render:process"
	// RenderQueue is the asynq queue render tasks are enqueued on.
	RenderQueue = "render"
)

// ErrMissingTimeline is returned when a submit request carries neither a
// prebuilt timeline nor a project to build one from.
var ErrMissingTimeline = errors.New("timeline or project is required")

// ContinuityError reports structural problems found before a job is
// created; the render is never attempted.
type ContinuityError struct {
	Issues []string
}

func (e *ContinuityError) Error() string {
	return "timeline validation failed: " + strings.Join(e.Issues, "; ")
}

// TaskEnqueuer is the slice of asynq.Client the service needs; tests
// substitute a fake that runs the worker inline.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RenderTaskPayload is the serialized body of a render task.
type RenderTaskPayload struct {
	JobID    string              `json:"jobId"`
	Timeline *model.Timeline     `json:"timeline"`
	Options  model.RenderOptions `json:"options"`
}

// RenderService orchestrates render submission, status queries and
// cancellation on top of the job store and the task queue.
type RenderService struct {
	store     store.JobStore
	enqueuer  TaskEnqueuer
	builder   *timeline.Builder
	validator *timeline.Validator
}

func NewRenderService(jobStore store.JobStore, enqueuer TaskEnqueuer) *RenderService {
	return &RenderService{
		store:     jobStore,
		enqueuer:  enqueuer,
		builder:   timeline.NewBuilder(),
		validator: timeline.NewValidator(),
	}
}

// SubmitRender validates the request, builds the timeline when only a
// project was supplied, creates the job record and enqueues the render
// task. Validation failures never create a job.
func (s *RenderService) SubmitRender(ctx context.Context, req *model.RenderSubmitRequest) (*model.RenderSubmitResponse, error) {
	tl := req.Timeline
	if tl == nil {
		if req.Project == nil {
			return nil, ErrMissingTimeline
		}
		// Frame parameters from the request override the builder defaults
		// so the timeline and the encode options agree.
		tl = s.builder.Build(req.Project, &model.RenderSettings{
			Width:     req.Width,
			Height:    req.Height,
			FrameRate: req.FrameRate,
		})
	}

	if report := s.validator.Validate(req.Project, tl); !report.Valid {
		return nil, &ContinuityError{Issues: report.Issues}
	}

	now := time.Now()
	job := &model.RenderJob{
		ID:            newRenderID(now),
		CompositionID: req.CompositionID,
		Status:        model.JobStatusPending,
		Progress:      0,
		Options:       req.Options(),
		Timeline:      tl,
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newRenderTask(job.ID, tl, job.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// No automatic retry: a failed render stays failed.
	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue(RenderQueue),
		asynq.MaxRetry(0),
		asynq.Timeout(15*time.Minute),
		asynq.Retention(store.DefaultMaxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	// Evict stale jobs and their artifacts on every submit.
	if evicted, err := s.store.Sweep(ctx, store.DefaultMaxAge); err != nil {
		log.Printf("Job sweep failed: %v", err)
	} else if evicted > 0 {
		log.Printf("Job sweep evicted %d stale render jobs", evicted)
	}

	return &model.RenderSubmitResponse{
		RenderID:  job.ID,
		Status:    model.JobStatusPending,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a render job.
func (s *RenderService) GetStatus(ctx context.Context, renderID string) (*model.RenderStatusResponse, error) {
	job, err := s.store.Get(ctx, renderID)
	if err != nil {
		return nil, err
	}

	return &model.RenderStatusResponse{
		RenderID:    job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		OutputURL:   job.OutputURL,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// CancelRender cancels a pending or rendering job. The pipeline observes
// the terminal record at its next progress report and stops issuing work.
func (s *RenderService) CancelRender(ctx context.Context, renderID string) (*model.RenderCancelResponse, error) {
	job, err := s.store.Cancel(ctx, renderID)
	if err != nil {
		return nil, err
	}

	return &model.RenderCancelResponse{
		RenderID: job.ID,
		Status:   job.Status,
		Success:  true,
	}, nil
}

// newRenderID derives a globally unique, time-sortable job id.
func newRenderID(now time.Time) string {
	return fmt.Sprintf("render_%s_%s",
		strconv.FormatInt(now.UnixMilli(), 36),
		strings.Split(uuid.New().String(), "-")[0])
}

func newRenderTask(jobID string, tl *model.Timeline, opts model.RenderOptions) (*asynq.Task, error) {
	payload := RenderTaskPayload{JobID: jobID, Timeline: tl, Options: opts}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRender, data), nil
}
