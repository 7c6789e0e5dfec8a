package timeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reelsmith/api/internal/model"
)

// Frame-level defaults applied when the caller provides no override.
const (
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultFrameRate  = 30
	DefaultBackground = "#000000"

	// Scenes with images but no video get a fixed-length, dimmed placeholder.
	PlaceholderDuration = 5.0
	PlaceholderOpacity  = 0.5

	TransitionType     = "crossfade"
	TransitionDuration = 0.5

	// Segments are allowed to drift from perfect contiguity by this much.
	ContinuityEpsilon = 0.1

	SchemaVersion = "1.0"
)

// Builder flattens a project's scene graph into a time-ordered timeline.
// It is a pure transformation: no I/O, deterministic over any well-formed
// project, and it never mutates its input.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build walks scenes in project order and emits one segment per generated
// video, advancing a running clock so segments stay contiguous. A scene
// without videos but with at least one image yields exactly one placeholder
// segment. Crossfades are generated between every adjacent pair.
func (b *Builder) Build(project *model.Project, override *model.RenderSettings) *model.Timeline {
	settings := mergeSettings(override)
	now := time.Now().UTC()

	var segments []model.Segment
	currentTime := 0.0

	for _, scene := range project.Scenes {
		if len(scene.Videos) == 0 {
			if len(scene.Images) > 0 {
				segments = append(segments, placeholderSegment(scene, currentTime))
				currentTime += PlaceholderDuration
			}
			continue
		}

		for _, video := range scene.Videos {
			segments = append(segments, model.Segment{
				ID:        uuid.New().String(),
				SourceURL: video.URL,
				StartTime: currentTime,
				Duration:  video.Duration,
				TrimStart: 0,
				TrimEnd:   video.Duration,
				Opacity:   1.0,
				Scale:     1.0,
				Effects:   inferEffects(video),
			})
			currentTime += video.Duration
		}
	}

	return &model.Timeline{
		ID:              uuid.New().String(),
		Name:            fmt.Sprintf("%s timeline", project.Name),
		Duration:        currentTime,
		FrameRate:       settings.FrameRate,
		Width:           settings.Width,
		Height:          settings.Height,
		BackgroundColor: settings.BackgroundColor,
		Segments:        segments,
		Transitions:     buildTransitions(segments),
		Metadata: model.TimelineMetadata{
			ProjectID:     project.ID,
			SchemaVersion: SchemaVersion,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func placeholderSegment(scene model.Scene, startTime float64) model.Segment {
	return model.Segment{
		ID:          uuid.New().String(),
		Placeholder: true,
		StartTime:   startTime,
		Duration:    PlaceholderDuration,
		TrimStart:   0,
		TrimEnd:     PlaceholderDuration,
		Opacity:     PlaceholderOpacity,
		Scale:       1.0,
	}
}

// buildTransitions emits one crossfade between every consecutive pair of
// segments: n segments yield n-1 transitions, never one before the first
// segment or after the last.
func buildTransitions(segments []model.Segment) []model.Transition {
	if len(segments) < 2 {
		return nil
	}

	transitions := make([]model.Transition, 0, len(segments)-1)
	for i := 0; i < len(segments)-1; i++ {
		transitions = append(transitions, model.Transition{
			ID:        uuid.New().String(),
			Type:      TransitionType,
			Duration:  TransitionDuration,
			Position:  segments[i].EndTime() - TransitionDuration,
			Direction: "in",
			Intensity: 1.0,
		})
	}
	return transitions
}

// inferEffects derives effect hints from generation metadata. The hints are
// informational, interpreted by the rendering backend rather than applied
// here, and the heuristic is not caller-configurable.
func inferEffects(video model.GeneratedVideo) []model.Effect {
	var effects []model.Effect

	if video.Style == "cinematic" {
		effects = append(effects,
			model.Effect{Type: "contrast", Intensity: 0.2},
			model.Effect{Type: "saturation", Intensity: 0.1},
		)
	}

	if video.Motion == "high" {
		effects = append(effects, model.Effect{
			Type:               "blur",
			Intensity:          0.3,
			MotionCompensating: true,
		})
	}

	return effects
}

func mergeSettings(override *model.RenderSettings) model.RenderSettings {
	settings := model.RenderSettings{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		FrameRate:       DefaultFrameRate,
		BackgroundColor: DefaultBackground,
	}
	if override == nil {
		return settings
	}
	if override.Width > 0 {
		settings.Width = override.Width
	}
	if override.Height > 0 {
		settings.Height = override.Height
	}
	if override.FrameRate > 0 {
		settings.FrameRate = override.FrameRate
	}
	if override.BackgroundColor != "" {
		settings.BackgroundColor = override.BackgroundColor
	}
	return settings
}
