package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/reelsmith/api/internal/model"
	"github.com/reelsmith/api/internal/service"
	"github.com/reelsmith/api/internal/store"
	"github.com/reelsmith/api/pkg/response"
)

type RenderHandler struct {
	service   *service.RenderService
	validator *validator.Validate
}

func NewRenderHandler(svc *service.RenderService, v *validator.Validate) *RenderHandler {
	return &RenderHandler{
		service:   svc,
		validator: v,
	}
}

// Submit handles POST /api/render/submit
func (h *RenderHandler) Submit(c *fiber.Ctx) error {
	var req model.RenderSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.SubmitRender(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrMissingTimeline) {
			return response.ValidationError(c, err.Error(), nil)
		}
		var continuity *service.ContinuityError
		if errors.As(err, &continuity) {
			return response.ContinuityError(c, "Timeline validation failed", continuity.Issues)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/render/status/:renderId
func (h *RenderHandler) Status(c *fiber.Ctx) error {
	renderID := c.Params("renderId")
	if renderID == "" {
		return response.ValidationError(c, "Render ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), renderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Render job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Cancel handles POST /api/render/cancel/:renderId
func (h *RenderHandler) Cancel(c *fiber.Ctx) error {
	renderID := c.Params("renderId")
	if renderID == "" {
		return response.ValidationError(c, "Render ID is required", nil)
	}

	result, err := h.service.CancelRender(c.Context(), renderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Render job not found")
		}
		if errors.Is(err, store.ErrTerminal) {
			return response.ValidationError(c, "Render job already finished", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// formatValidationErrors turns validator errors into field/tag pairs.
func formatValidationErrors(err error) []fiber.Map {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make([]fiber.Map, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, fiber.Map{
			"field": fieldErr.Field(),
			"tag":   fieldErr.Tag(),
		})
	}
	return details
}
