package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestClientSubmitRelaysBackendReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat-session", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Created a Python session for Monday.","extra":"ignored"}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Timeout: time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)

	reply, err := client.Submit(context.Background(), SubmitRequest{Message: "I'm free Monday 2-4 PM", UserID: "u-1"})
	require.NoError(t, err)
	require.Equal(t, "Created a Python session for Monday.", reply.Response)
}

func TestClientSubmitReturnsErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), SubmitRequest{Message: "hello", UserID: "u-1"})
	require.Error(t, err)
}

func TestClientSubmitReturnsErrorWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := New(Config{BaseURL: server.URL, Timeout: 200 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), SubmitRequest{Message: "hello", UserID: "u-1"})
	require.Error(t, err)
}

func TestClientRequestSessionPostsStructuredPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/session-request", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "st-1", payload["student_id"])
		require.Equal(t, "14:00:00", payload["start_time"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Session request received!"}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Timeout: time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ack, err := client.RequestSession(context.Background(), SessionRequest{
		StudentID: "st-1",
		Subject:   "Python",
		Date:      "2026-09-07",
		StartTime: "14:00:00",
		EndTime:   "16:00:00",
	})
	require.NoError(t, err)
	require.Equal(t, "Session request received!", ack.Message)
}

func TestClientRequestSessionReturnsErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.RequestSession(context.Background(), SessionRequest{StudentID: "st-1"})
	require.Error(t, err)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
