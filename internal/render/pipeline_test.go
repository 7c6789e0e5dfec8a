package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelsmith/api/internal/model"
	"github.com/reelsmith/api/internal/store"
)

type recordingNotifier struct {
	progress   []int
	completed  []string
	failed     []string
	onProgress func(renderID string, progress int)
}

func (n *recordingNotifier) RenderProgress(renderID string, progress int, status model.JobStatus) {
	n.progress = append(n.progress, progress)
	if n.onProgress != nil {
		n.onProgress(renderID, progress)
	}
}

func (n *recordingNotifier) RenderComplete(renderID, outputURL string) {
	n.completed = append(n.completed, outputURL)
}

func (n *recordingNotifier) RenderFailed(renderID, message string) {
	n.failed = append(n.failed, message)
}

func newPipelineFixture(backend Backend, notifier Notifier) (*Pipeline, *store.MemoryStore) {
	jobStore := store.NewMemoryStore(nil)
	poller := NewStatusPollerWithLimits(backend, time.Millisecond, 50)
	return NewPipeline(jobStore, backend, poller, notifier), jobStore
}

func createPendingJob(t *testing.T, jobStore *store.MemoryStore, id string) {
	t.Helper()
	err := jobStore.Create(context.Background(), &model.RenderJob{
		ID:     id,
		Status: model.JobStatusPending,
	})
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
}

func testTimeline() *model.Timeline {
	return &model.Timeline{
		ID:        "tl-1",
		Duration:  10,
		FrameRate: 30,
		Width:     1920,
		Height:    1080,
		Segments: []model.Segment{
			{ID: "seg-1", SourceURL: "a.mp4", StartTime: 0, Duration: 6},
			{ID: "seg-2", SourceURL: "b.mp4", StartTime: 6, Duration: 4},
		},
	}
}

func TestPipelineRun_Success(t *testing.T) {
	backend := &scriptedBackend{script: []*TaskStatus{
		{Progress: 50, State: TaskStateRunning},
		{Progress: 100, State: TaskStateCompleted, OutputLocation: "bundle-ref"},
		{Progress: 50, State: TaskStateRunning},
		{Progress: 100, State: TaskStateCompleted, OutputLocation: "https://cdn.example.com/renders/out.mp4"},
	}}
	notifier := &recordingNotifier{}
	pipeline, jobStore := newPipelineFixture(backend, notifier)
	createPendingJob(t, jobStore, "job-1")

	if err := pipeline.Run(context.Background(), "job-1", testTimeline(), model.RenderOptions{OutputFormat: "mp4"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	job, _ := jobStore.Get(context.Background(), "job-1")
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", job.Status, job.Error)
	}
	if job.Progress != 100 {
		t.Errorf("expected progress 100, got %d", job.Progress)
	}
	if job.OutputURL != "https://cdn.example.com/renders/out.mp4" {
		t.Errorf("unexpected output url %q", job.OutputURL)
	}

	if len(backend.submits) != 2 || backend.submits[0] != PhaseBundle || backend.submits[1] != PhaseEncode {
		t.Errorf("expected bundle then encode submission, got %v", backend.submits)
	}

	// Bundling owns [0,50), encoding [50,100]; reports never decrease.
	prev := 0
	crossed := false
	for _, p := range notifier.progress {
		if p < prev {
			t.Fatalf("progress regressed: %v", notifier.progress)
		}
		if p >= 50 {
			crossed = true
		}
		prev = p
	}
	if !crossed {
		t.Errorf("progress never reached the encode range: %v", notifier.progress)
	}
	if len(notifier.completed) != 1 {
		t.Errorf("expected one completion notification, got %v", notifier.completed)
	}
}

func TestPipelineRun_BackendFailure(t *testing.T) {
	backend := &scriptedBackend{script: []*TaskStatus{
		{Progress: 40, State: TaskStateRunning},
		{Progress: 40, State: TaskStateFailed, Error: "encoder crashed"},
	}}
	notifier := &recordingNotifier{}
	pipeline, jobStore := newPipelineFixture(backend, notifier)
	createPendingJob(t, jobStore, "job-1")

	err := pipeline.Run(context.Background(), "job-1", testTimeline(), model.RenderOptions{})
	if err == nil || err.Error() != "encoder crashed" {
		t.Fatalf("expected verbatim backend error, got %v", err)
	}

	job, _ := jobStore.Get(context.Background(), "job-1")
	if job.Status != model.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Error != "encoder crashed" {
		t.Errorf("expected error text passed through, got %q", job.Error)
	}
	if job.Progress == 0 || job.Progress == 100 {
		t.Errorf("progress should be left at its last reported value, got %d", job.Progress)
	}
	if job.OutputURL != "" {
		t.Errorf("failed job must not carry an output url, got %q", job.OutputURL)
	}
	if len(notifier.failed) != 1 {
		t.Errorf("expected one failure notification, got %v", notifier.failed)
	}
}

func TestPipelineRun_SubmitFailure(t *testing.T) {
	backend := &scriptedBackend{submitErr: errors.New("connection refused")}
	pipeline, jobStore := newPipelineFixture(backend, nil)
	createPendingJob(t, jobStore, "job-1")

	if err := pipeline.Run(context.Background(), "job-1", testTimeline(), model.RenderOptions{}); err == nil {
		t.Fatal("expected submit error")
	}

	job, _ := jobStore.Get(context.Background(), "job-1")
	if job.Status != model.JobStatusFailed {
		t.Errorf("expected failed, got %s", job.Status)
	}
}

func TestPipelineRun_CancelBeforeStart(t *testing.T) {
	backend := &scriptedBackend{script: []*TaskStatus{{Progress: 0, State: TaskStateRunning}}}
	pipeline, jobStore := newPipelineFixture(backend, nil)
	createPendingJob(t, jobStore, "job-1")

	if _, err := jobStore.Cancel(context.Background(), "job-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if err := pipeline.Run(context.Background(), "job-1", testTimeline(), model.RenderOptions{}); err != nil {
		t.Fatalf("run after cancel should be a no-op, got %v", err)
	}

	job, _ := jobStore.Get(context.Background(), "job-1")
	if job.Status != model.JobStatusFailed || job.Error != store.CancelledMessage {
		t.Errorf("expected cancelled job untouched, got %s / %q", job.Status, job.Error)
	}
	if len(backend.submits) != 0 {
		t.Errorf("no work should be submitted for a cancelled job, got %v", backend.submits)
	}
}

func TestPipelineRun_CancelMidRender(t *testing.T) {
	backend := &scriptedBackend{script: []*TaskStatus{{Progress: 10, State: TaskStateRunning}}}
	pipeline, jobStore := newPipelineFixture(backend, nil)

	notifier := &recordingNotifier{
		onProgress: func(renderID string, progress int) {
			jobStore.Cancel(context.Background(), renderID)
		},
	}
	pipeline.notifier = notifier
	createPendingJob(t, jobStore, "job-1")

	if err := pipeline.Run(context.Background(), "job-1", testTimeline(), model.RenderOptions{}); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}

	job, _ := jobStore.Get(context.Background(), "job-1")
	if job.Status != model.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Error != store.CancelledMessage {
		t.Errorf("expected cancellation message, got %q", job.Error)
	}
	if len(backend.submits) != 1 {
		t.Errorf("pipeline should not start the encode phase after cancel, got %v", backend.submits)
	}
}
