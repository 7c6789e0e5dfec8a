package render

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelsmith/api/internal/model"
)

// DefaultSegmentCost is the simulated processing time charged per segment
// and per phase.
const DefaultSegmentCost = 400 * time.Millisecond

// SimulatedBackend is the local fallback used when the real rendering
// service is unreachable. Each submitted task advances linearly over a
// duration proportional to the timeline's segment count and finally
// synthesizes a placeholder output artifact. It exists so job bookkeeping,
// progress reporting and the polling contract keep working in degraded
// mode; its log lines and output URLs make the simulation unmistakable.
type SimulatedBackend struct {
	mu          sync.Mutex
	tasks       map[string]*simulatedTask
	segmentCost time.Duration
}

type simulatedTask struct {
	phase    Phase
	started  time.Time
	duration time.Duration
	output   string
}

func NewSimulatedBackend() *SimulatedBackend {
	return &SimulatedBackend{
		tasks:       make(map[string]*simulatedTask),
		segmentCost: DefaultSegmentCost,
	}
}

// NewSimulatedBackendWithCost overrides the per-segment processing time;
// tests use sub-millisecond costs to finish instantly.
func NewSimulatedBackendWithCost(segmentCost time.Duration) *SimulatedBackend {
	b := NewSimulatedBackend()
	b.segmentCost = segmentCost
	return b
}

func (b *SimulatedBackend) Name() string { return "simulated" }

func (b *SimulatedBackend) Submit(ctx context.Context, phase Phase, tl *model.Timeline, opts model.RenderOptions) (string, error) {
	segments := len(tl.Segments)
	if segments < 1 {
		segments = 1
	}

	taskID := uuid.New().String()
	task := &simulatedTask{
		phase:    phase,
		started:  time.Now(),
		duration: time.Duration(segments) * b.segmentCost,
	}
	if phase == PhaseEncode {
		format := opts.OutputFormat
		if format == "" {
			format = "mp4"
		}
		task.output = fmt.Sprintf("simulated://renders/%s.%s", taskID, format)
	}

	b.mu.Lock()
	b.tasks[taskID] = task
	b.mu.Unlock()

	log.Printf("[SimulatedRender] %s phase submitted for timeline %s: %d segments, %v simulated processing",
		phase, tl.ID, segments, task.duration)
	return taskID, nil
}

func (b *SimulatedBackend) Poll(ctx context.Context, taskID string) (*TaskStatus, error) {
	b.mu.Lock()
	task, ok := b.tasks[taskID]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("simulated task %s not found", taskID)
	}

	elapsed := time.Since(task.started)
	if elapsed >= task.duration {
		log.Printf("[SimulatedRender] %s phase task %s completed", task.phase, taskID)
		return &TaskStatus{
			Progress:       100,
			State:          TaskStateCompleted,
			OutputLocation: task.output,
		}, nil
	}

	progress := int(float64(elapsed) / float64(task.duration) * 100)
	return &TaskStatus{Progress: progress, State: TaskStateRunning}, nil
}
