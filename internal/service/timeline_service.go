package service

import (
	"github.com/reelsmith/api/internal/model"
	"github.com/reelsmith/api/internal/timeline"
)

// TimelineService exposes timeline construction and validation as a
// preview surface, without creating a render job.
type TimelineService struct {
	builder   *timeline.Builder
	validator *timeline.Validator
}

func NewTimelineService() *TimelineService {
	return &TimelineService{
		builder:   timeline.NewBuilder(),
		validator: timeline.NewValidator(),
	}
}

// Build flattens a project into a timeline and reports its validity.
func (s *TimelineService) Build(req *model.TimelineBuildRequest) *model.TimelineBuildResponse {
	tl := s.builder.Build(req.Project, req.Settings)
	report := s.validator.Validate(req.Project, tl)

	return &model.TimelineBuildResponse{
		Timeline: tl,
		Valid:    report.Valid,
		Issues:   report.Issues,
	}
}

// Validate checks a project/timeline pair for structural issues.
func (s *TimelineService) Validate(req *model.TimelineValidateRequest) model.ValidationReport {
	return s.validator.Validate(req.Project, req.Timeline)
}
