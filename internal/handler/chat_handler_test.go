package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/handler"
)

type mockChatService struct {
	lastPrincipal      string
	lastRole           string
	lastRequest        dto.ChatRequest
	lastSessionRequest dto.SessionRequestCreate
	response           dto.ChatResponse
	result             dto.SessionRequestResult
	err                error
}

func (m *mockChatService) Submit(_ context.Context, principalID, role string, req dto.ChatRequest) (dto.ChatResponse, error) {
	m.lastPrincipal = principalID
	m.lastRole = role
	m.lastRequest = req
	if m.err != nil {
		return dto.ChatResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockChatService) RequestSession(_ context.Context, principalID, role string, req dto.SessionRequestCreate) (dto.SessionRequestResult, error) {
	m.lastPrincipal = principalID
	m.lastRole = role
	m.lastSessionRequest = req
	if m.err != nil {
		return dto.SessionRequestResult{}, m.err
	}
	return m.result, nil
}

func (m *mockChatService) Greeting(role string) string {
	return "hello " + role
}

func newChatApp(svc *mockChatService, identity *mockIdentityService, userID string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/chat", func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	handler.NewChatHandler(svc, identity, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestChatHandler_SubmitRelaysReply(t *testing.T) {
	svc := &mockChatService{response: dto.ChatResponse{Reply: "Booked it."}}
	identity := &mockIdentityService{resolution: dto.RoleResolution{Role: dto.RoleStudent}}
	app := newChatApp(svc, identity, "st-1")

	body, err := json.Marshal(dto.ChatRequest{Message: "I'm free Friday"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool             `json:"success"`
		Data    dto.ChatResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "Booked it.", response.Data.Reply)
	require.Equal(t, "st-1", svc.lastPrincipal)
	require.Equal(t, dto.RoleStudent, svc.lastRole, "role resolved when the token carries none")
}

func TestChatHandler_SubmitRequiresUser(t *testing.T) {
	svc := &mockChatService{}
	app := newChatApp(svc, &mockIdentityService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/", bytes.NewReader([]byte(`{"message":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, svc.lastRequest.Message)
}

func newSessionRequestApp(svc *mockChatService, userID string) *fiber.App {
	app := fiber.New()
	app.Post("/api/v1/sessions/request", func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
			c.Locals("user_role", dto.RoleStudent)
		}
		return c.Next()
	}, handler.NewChatHandler(svc, &mockIdentityService{}, zerolog.New(io.Discard)).RequestSession)
	return app
}

func TestChatHandler_RequestSessionForwardsPayload(t *testing.T) {
	svc := &mockChatService{result: dto.SessionRequestResult{Message: "Request received."}}
	app := newSessionRequestApp(svc, "st-1")

	body, err := json.Marshal(dto.SessionRequestCreate{
		Subject:   "Python",
		Date:      "2026-09-07",
		StartTime: "14:00:00",
		EndTime:   "16:00:00",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/request", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                     `json:"success"`
		Data    dto.SessionRequestResult `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "Request received.", response.Data.Message)
	require.Equal(t, "st-1", svc.lastPrincipal)
	require.Equal(t, "Python", svc.lastSessionRequest.Subject)
}

func TestChatHandler_RequestSessionReportsBackendFailure(t *testing.T) {
	svc := &mockChatService{err: errors.New("backend down")}
	app := newSessionRequestApp(svc, "st-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/request", bytes.NewReader([]byte(`{"subject":"Python","date":"2026-09-07","start_time":"14:00:00","end_time":"16:00:00"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestChatHandler_GreetingUsesRoleClaim(t *testing.T) {
	svc := &mockChatService{}
	app := fiber.New()
	group := app.Group("/api/v1/chat", func(c *fiber.Ctx) error {
		c.Locals("user_id", "t-1")
		c.Locals("user_role", dto.RoleTeacher)
		return c.Next()
	})
	handler.NewChatHandler(svc, &mockIdentityService{}, zerolog.New(io.Discard)).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chat/greeting", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "hello teacher", response.Data.Message)
}
