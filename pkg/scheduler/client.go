// Package scheduler wraps the external natural-language scheduling backend.
// The backend interprets free-text availability statements and owns the
// session and enrollment rows it creates; this client is an opaque
// request/response collaborator around it.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tutorlink",
		Subsystem: "scheduler",
		Name:      "request_duration_seconds",
		Help:      "Duration of scheduling backend requests",
	}, []string{"outcome"})

	requestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tutorlink",
		Subsystem: "scheduler",
		Name:      "request_failures_total",
		Help:      "Number of failed scheduling backend requests",
	})
)

// Config defines configuration options for the scheduling backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// SubmitRequest is the payload forwarded to the backend verbatim.
type SubmitRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	IsTeacher bool   `json:"is_teacher"`
}

// SubmitResponse carries the backend's human-readable reply. Additional
// response fields are ignored.
type SubmitResponse struct {
	Response string `json:"response"`
}

// SessionRequest is a structured availability request submitted on behalf of
// a student; the backend matches it to an existing session or creates one.
type SessionRequest struct {
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SessionRequestResponse carries the backend's acknowledgement. Additional
// response fields are ignored.
type SessionRequestResponse struct {
	Message string `json:"message"`
}

// Client talks to the scheduling backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New builds a scheduling backend client using the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("scheduler base url is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	tracer := otel.Tracer("github.com/noah-isme/tutorlink-api/pkg/scheduler")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		tracer:  tracer,
		logger:  logger.With().Str("component", "scheduler_client").Logger(),
	}, nil
}

// Submit forwards an utterance to the backend's chat-session endpoint and
// returns its reply. Transport failures and non-2xx statuses are returned as
// errors; the caller decides how to degrade.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	spanCtx, span := c.tracer.Start(ctx, "scheduler.submit", trace.WithAttributes(
		attribute.String("scheduler.user_id", req.UserID),
		attribute.Bool("scheduler.is_teacher", req.IsTeacher),
	))
	defer span.End()

	var decoded SubmitResponse
	if err := c.timedPost(spanCtx, span, "/api/chat-session", req, &decoded); err != nil {
		return SubmitResponse{}, err
	}

	c.logger.Debug().Str("user_id", req.UserID).Msg("scheduler reply received")
	return decoded, nil
}

// RequestSession forwards a structured session request to the backend's
// session-request endpoint. Unlike Submit, failures surface to the caller:
// the requesting form shows them instead of degrading to a canned reply.
func (c *Client) RequestSession(ctx context.Context, req SessionRequest) (SessionRequestResponse, error) {
	spanCtx, span := c.tracer.Start(ctx, "scheduler.request_session", trace.WithAttributes(
		attribute.String("scheduler.student_id", req.StudentID),
		attribute.String("scheduler.subject", req.Subject),
	))
	defer span.End()

	var decoded SessionRequestResponse
	if err := c.timedPost(spanCtx, span, "/api/session-request", req, &decoded); err != nil {
		return SessionRequestResponse{}, err
	}

	c.logger.Debug().Str("student_id", req.StudentID).Msg("session request acknowledged")
	return decoded, nil
}

func (c *Client) timedPost(ctx context.Context, span trace.Span, path string, payload, target interface{}) error {
	start := time.Now()
	if err := c.postJSON(ctx, path, payload, target); err != nil {
		requestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		requestFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "scheduler request failed")
		return err
	}

	requestDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("scheduler backend unreachable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("scheduler backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
