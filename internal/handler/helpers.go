package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/middleware"
)

func localString(c *fiber.Ctx, key string) string {
	if v := c.Locals(key); v != nil {
		if value, ok := v.(string); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func userIDFromContext(c *fiber.Ctx) string {
	return localString(c, "user_id")
}

func userRoleFromContext(c *fiber.Ctx) string {
	return localString(c, "user_role")
}

// principalFromContext rebuilds the authenticated principal from the claims
// the JWT middleware stashed on the request.
func principalFromContext(c *fiber.Ctx) dto.Principal {
	return dto.Principal{
		ID:       userIDFromContext(c),
		Email:    localString(c, "user_email"),
		Name:     localString(c, "user_name"),
		FullName: localString(c, "user_full_name"),
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
