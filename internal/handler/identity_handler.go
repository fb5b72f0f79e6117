package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/service"
	"github.com/noah-isme/tutorlink-api/internal/utils"
)

// IdentityHandler exposes role resolution for the authenticated principal.
type IdentityHandler struct {
	service   service.IdentityService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewIdentityHandler creates an identity handler instance.
func NewIdentityHandler(service service.IdentityService, validator *validator.Validate, logger zerolog.Logger) *IdentityHandler {
	return &IdentityHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "identity_handler").Logger(),
	}
}

// Register binds identity routes under the provided router group.
func (h *IdentityHandler) Register(router fiber.Router) {
	router.Post("/resolve", h.resolve)
}

func (h *IdentityHandler) resolve(c *fiber.Ctx) error {
	principal := principalFromContext(c)
	if err := h.validator.Struct(principal); err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "principal identity incomplete")
	}

	resolution := h.service.Resolve(requestContext(c), principal)

	h.logger.Debug().
		Str("principal_id", principal.ID).
		Str("role", resolution.Role).
		Bool("provisioned", resolution.Provisioned).
		Msg("identity resolved")

	return utils.SendSuccess(c, "identity resolved", resolution)
}
