package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/observability"
	"github.com/noah-isme/tutorlink-api/pkg/scheduler"
)

// chatFallbackReply is served whenever the scheduling backend cannot be
// reached; the user never sees a raw error.
const chatFallbackReply = "Sorry, I encountered an error. Please try again."

const (
	teacherGreeting = "Hi! I'm your AI scheduling assistant. You can tell me your availability like 'I'm available Monday 2-4 PM for Python sessions' and I'll help manage your schedule."
	studentGreeting = "Hi! I'm your AI scheduling assistant. Tell me when you're available for sessions like 'I'm free Monday 2-4 PM for Python' and I'll find or create the perfect session for you."
)

// SchedulerBackend is the request/response collaborator that interprets
// utterances. Satisfied by *scheduler.Client.
type SchedulerBackend interface {
	Submit(ctx context.Context, req scheduler.SubmitRequest) (scheduler.SubmitResponse, error)
	RequestSession(ctx context.Context, req scheduler.SessionRequest) (scheduler.SessionRequestResponse, error)
}

// FeedRefresher triggers the post-utterance refresh cascade.
type FeedRefresher interface {
	Burst(principalID, role string)
}

// ChatService forwards scheduling utterances to the external backend and
// relays its reply.
type ChatService interface {
	Submit(ctx context.Context, principalID, role string, req dto.ChatRequest) (dto.ChatResponse, error)
	RequestSession(ctx context.Context, principalID, role string, req dto.SessionRequestCreate) (dto.SessionRequestResult, error)
	Greeting(role string) string
}

type chatService struct {
	backend   SchedulerBackend
	feed      FeedRefresher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewChatService creates the conversational scheduling proxy.
func NewChatService(backend SchedulerBackend, feed FeedRefresher, validate *validator.Validate, logger zerolog.Logger) ChatService {
	return &chatService{
		backend:   backend,
		feed:      feed,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "chat_service").Logger(),
	}
}

// Submit passes the utterance through to the backend without interpreting
// it. Backend failures degrade to a fallback reply, never an error; the only
// error path is an invalid request.
func (s *chatService) Submit(ctx context.Context, principalID, role string, req dto.ChatRequest) (dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChatResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if message == "" {
		return dto.ChatResponse{}, fmt.Errorf("message empty after sanitization")
	}

	// The feed burst runs regardless of outcome: the backend may have
	// mutated sessions before the reply was lost.
	defer func() {
		if s.feed != nil {
			s.feed.Burst(principalID, role)
		}
	}()

	reply, err := s.backend.Submit(ctx, scheduler.SubmitRequest{
		Message:   message,
		UserID:    principalID,
		IsTeacher: role == dto.RoleTeacher,
	})
	if err != nil {
		observability.ChatFallbacks().Inc()
		s.logger.Warn().Err(err).Str("principal_id", principalID).Msg("scheduler backend unavailable, serving fallback reply")
		return dto.ChatResponse{Reply: chatFallbackReply, Fallback: true}, nil
	}

	response := strings.TrimSpace(reply.Response)
	if response == "" {
		response = "I understand! Let me process that for you."
	}

	return dto.ChatResponse{Reply: response}, nil
}

// RequestSession forwards a structured session request to the backend. Unlike
// Submit, backend failures surface to the caller, and the feed burst only
// fires when the backend acknowledged the request.
func (s *chatService) RequestSession(ctx context.Context, principalID, role string, req dto.SessionRequestCreate) (dto.SessionRequestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionRequestResult{}, err
	}

	ack, err := s.backend.RequestSession(ctx, scheduler.SessionRequest{
		StudentID: principalID,
		Subject:   strings.TrimSpace(s.sanitizer.Sanitize(req.Subject)),
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("principal_id", principalID).Msg("session request failed")
		return dto.SessionRequestResult{}, fmt.Errorf("failed to process session request: %w", err)
	}

	if s.feed != nil {
		s.feed.Burst(principalID, role)
	}

	message := strings.TrimSpace(ack.Message)
	if message == "" {
		message = "Session request received."
	}

	return dto.SessionRequestResult{Message: message}, nil
}

// Greeting returns the assistant's opening message for a role.
func (s *chatService) Greeting(role string) string {
	if role == dto.RoleTeacher {
		return teacherGreeting
	}
	return studentGreeting
}
