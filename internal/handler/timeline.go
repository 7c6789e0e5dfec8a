package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/reelsmith/api/internal/model"
	"github.com/reelsmith/api/internal/service"
	"github.com/reelsmith/api/pkg/response"
)

type TimelineHandler struct {
	service   *service.TimelineService
	validator *validator.Validate
}

func NewTimelineHandler(svc *service.TimelineService, v *validator.Validate) *TimelineHandler {
	return &TimelineHandler{
		service:   svc,
		validator: v,
	}
}

// Build handles POST /api/timeline/build
func (h *TimelineHandler) Build(c *fiber.Ctx) error {
	var req model.TimelineBuildRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return response.OK(c, h.service.Build(&req))
}

// Validate handles POST /api/timeline/validate
func (h *TimelineHandler) Validate(c *fiber.Ctx) error {
	var req model.TimelineValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return response.OK(c, h.service.Validate(&req))
}
