package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/tutorlink-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens issued by
// the auth provider. The subject claim carries the principal id; name, email
// and full_name claims feed role provisioning.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID := claimString(claims, "sub", "user_id", "id")
		if userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token missing subject")
		}

		c.Locals("user_id", userID)
		if role := claimString(claims, "role", "user_role"); role != "" {
			c.Locals("user_role", strings.ToLower(role))
		}
		if email := claimString(claims, "email"); email != "" {
			c.Locals("user_email", email)
		}
		if name := claimString(claims, "name"); name != "" {
			c.Locals("user_name", name)
		}
		if fullName := claimString(claims, "full_name"); fullName != "" {
			c.Locals("user_full_name", fullName)
		}

		return c.Next()
	}
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if raw, ok := claims[key]; ok {
			if value, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}
