package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/reelsmith/api/internal/render"
	"github.com/reelsmith/api/internal/service"
)

// RenderWorker drives queued render jobs through the pipeline.
type RenderWorker struct {
	pipeline *render.Pipeline
}

func NewRenderWorker(pipeline *render.Pipeline) *RenderWorker {
	return &RenderWorker{pipeline: pipeline}
}

// ProcessTask handles one render task to its terminal state.
func (w *RenderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.RenderTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal render payload: %w", err)
	}
	if payload.Timeline == nil {
		return fmt.Errorf("render task %s carries no timeline", payload.JobID)
	}

	log.Printf("Starting render job: %s (%d segments, %.1fs)",
		payload.JobID, len(payload.Timeline.Segments), payload.Timeline.Duration)

	return w.pipeline.Run(ctx, payload.JobID, payload.Timeline, payload.Options)
}
