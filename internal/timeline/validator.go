package timeline

import (
	"fmt"
	"math"

	"github.com/reelsmith/api/internal/model"
)

// Validator checks structural invariants of a built or loaded timeline.
// It never fails fast: every violation is accumulated so a single call
// surfaces all problems at once.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all checks against the timeline. The project may be nil
// when validating a caller-supplied timeline without its source project;
// project-derived checks are skipped in that case.
func (v *Validator) Validate(project *model.Project, tl *model.Timeline) model.ValidationReport {
	var issues []string

	if tl == nil {
		return model.ValidationReport{Valid: false, Issues: []string{"timeline is missing"}}
	}

	if tl.ID == "" {
		issues = append(issues, "timeline has no id")
	}
	if tl.Name == "" {
		issues = append(issues, "timeline has no name")
	}

	if project != nil {
		expectedVideos := project.VideoCount()
		realSegments := 0
		for _, seg := range tl.Segments {
			if !seg.Placeholder {
				realSegments++
			}
		}
		if realSegments != expectedVideos {
			issues = append(issues, fmt.Sprintf(
				"segment count mismatch: %d segments for %d generated videos",
				realSegments, expectedVideos))
		}
	}

	// Continuity: each segment must start where the previous one ended,
	// within the epsilon. Expected time advances from the actual segment
	// so one gap does not cascade into false positives downstream.
	expectedTime := 0.0
	for i, seg := range tl.Segments {
		if math.Abs(seg.StartTime-expectedTime) > ContinuityEpsilon {
			issues = append(issues, fmt.Sprintf(
				"segment %d breaks continuity: starts at %.2fs, expected %.2fs",
				i, seg.StartTime, expectedTime))
		}
		expectedTime = seg.EndTime()

		if !seg.Placeholder && seg.SourceURL == "" {
			issues = append(issues, fmt.Sprintf("segment %d has no source reference", i))
		}
	}

	if tl.Width <= 0 || tl.Height <= 0 {
		issues = append(issues, fmt.Sprintf("invalid dimensions %dx%d", tl.Width, tl.Height))
	}
	if tl.FrameRate <= 0 {
		issues = append(issues, fmt.Sprintf("invalid frame rate %d", tl.FrameRate))
	}

	return model.ValidationReport{Valid: len(issues) == 0, Issues: issues}
}
