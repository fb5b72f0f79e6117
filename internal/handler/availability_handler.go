package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/service"
	"github.com/noah-isme/tutorlink-api/internal/utils"
)

// AvailabilityHandler manages offered and requested time blocks.
type AvailabilityHandler struct {
	service service.AvailabilityService
	logger  zerolog.Logger
}

// NewAvailabilityHandler creates an availability handler instance.
func NewAvailabilityHandler(service service.AvailabilityService, logger zerolog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		logger:  logger.With().Str("component", "availability_handler").Logger(),
	}
}

// Register binds availability routes under the provided router group.
func (h *AvailabilityHandler) Register(router fiber.Router) {
	router.Post("/teachers/:id/availability", h.createForTeacher)
	router.Get("/teachers/:id/availability", h.listForTeacher)
	router.Post("/students/:id/availability", h.createForStudent)
	router.Get("/students/:id/availability", h.listForStudent)
}

func (h *AvailabilityHandler) createForTeacher(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "id required")
	}
	// Principals only manage their own availability.
	if id != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusForbidden, "cannot manage another user's availability")
	}

	var req dto.AvailabilityCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.AddForTeacher(requestContext(c), id, req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save availability")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "availability saved", created)
}

func (h *AvailabilityHandler) listForTeacher(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "id required")
	}

	blocks, err := h.service.ListForTeacher(requestContext(c), id)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list availability")
	}

	return utils.SendSuccess(c, "availability listed", blocks)
}

func (h *AvailabilityHandler) createForStudent(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "id required")
	}
	if id != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusForbidden, "cannot manage another user's availability")
	}

	var req dto.AvailabilityCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.AddForStudent(requestContext(c), id, req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save availability")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "availability saved", created)
}

func (h *AvailabilityHandler) listForStudent(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "id required")
	}

	blocks, err := h.service.ListForStudent(requestContext(c), id)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list availability")
	}

	return utils.SendSuccess(c, "availability listed", blocks)
}
