package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/service"
	"github.com/noah-isme/tutorlink-api/internal/utils"
)

// EventHandler accepts change notifications from the scheduling backend.
type EventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventHandler creates an event handler instance.
func NewEventHandler(service service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register binds the internal event route under the provided router group.
func (h *EventHandler) Register(router fiber.Router) {
	router.Post("/events", h.ingest)
}

func (h *EventHandler) ingest(c *fiber.Ctx) error {
	event, err := h.service.Ingest(requestContext(c), c.Body())
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to ingest change event")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to ingest event")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "event accepted", event)
}
