package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/middleware"
	"github.com/noah-isme/tutorlink-api/internal/service"
	"github.com/noah-isme/tutorlink-api/internal/utils"
)

// SessionHandler serves the relevant-session list and its websocket feed.
type SessionHandler struct {
	feed     service.FeedService
	identity service.IdentityService
	logger   zerolog.Logger
}

// NewSessionHandler creates a session handler instance.
func NewSessionHandler(feed service.FeedService, identity service.IdentityService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		feed:     feed,
		identity: identity,
		logger:   logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register binds session routes under the provided router group.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Get("/", h.list)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			c.Locals("resolved_role", h.roleFor(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

// roleFor prefers the role claim when the token carries one and falls back
// to resolving the principal against the role tables.
func (h *SessionHandler) roleFor(c *fiber.Ctx) string {
	if role := userRoleFromContext(c); role != "" {
		return role
	}
	return h.identity.Resolve(requestContext(c), principalFromContext(c)).Role
}

func (h *SessionHandler) list(c *fiber.Ctx) error {
	principalID := userIDFromContext(c)
	if principalID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user id missing")
	}

	activeOnly := c.QueryBool("active_only", true)
	role := h.roleFor(c)

	// Server-local time, matching the clock the feed refreshes use.
	sessions, err := h.feed.ListRelevantSessions(requestContext(c), principalID, role, time.Now(), activeOnly)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list sessions")
	}

	return utils.SendSuccess(c, "sessions listed", sessions)
}

func (h *SessionHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketLocalString(conn, "user_id")
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	role := websocketLocalString(conn, "resolved_role")
	correlation := websocketLocalString(conn, "correlation_id")
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.FeedConnectionOptions{
		PrincipalID:   userID,
		Role:          role,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("principal_id", userID).Str("role", role).Msg("feed websocket connected")
	h.feed.ServeConnection(conn, opts)
	h.logger.Info().Str("principal_id", userID).Str("role", role).Msg("feed websocket disconnected")
}

func websocketLocalString(conn *websocket.Conn, key string) string {
	if value, ok := conn.Locals(key).(string); ok {
		return value
	}
	return ""
}
