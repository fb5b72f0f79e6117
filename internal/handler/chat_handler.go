package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/service"
	"github.com/noah-isme/tutorlink-api/internal/utils"
)

// ChatHandler proxies scheduling utterances to the conversational backend.
type ChatHandler struct {
	service  service.ChatService
	identity service.IdentityService
	logger   zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, identity service.IdentityService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:  service,
		identity: identity,
		logger:   logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/", h.submit)
	router.Get("/greeting", h.greeting)
}

func (h *ChatHandler) roleFor(c *fiber.Ctx) string {
	if role := userRoleFromContext(c); role != "" {
		return role
	}
	return h.identity.Resolve(requestContext(c), principalFromContext(c)).Role
}

func (h *ChatHandler) submit(c *fiber.Ctx) error {
	principalID := userIDFromContext(c)
	if principalID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user id missing")
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Submit(requestContext(c), principalID, h.roleFor(c), req)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccess(c, "chat reply", resp)
}

// RequestSession handles structured session requests submitted from the
// request form rather than the chat box.
func (h *ChatHandler) RequestSession(c *fiber.Ctx) error {
	principalID := userIDFromContext(c)
	if principalID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user id missing")
	}

	var req dto.SessionRequestCreate
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.RequestSession(requestContext(c), principalID, h.roleFor(c), req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Str("principal_id", principalID).Msg("session request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process session request")
	}

	return utils.SendSuccess(c, "session request accepted", result)
}

func (h *ChatHandler) greeting(c *fiber.Ctx) error {
	message := h.service.Greeting(h.roleFor(c))
	return utils.SendSuccess(c, "chat greeting", fiber.Map{"message": message})
}
