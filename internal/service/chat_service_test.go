package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/pkg/scheduler"
)

type backendStub struct {
	reply       string
	ack         string
	err         error
	last        scheduler.SubmitRequest
	lastRequest scheduler.SessionRequest
}

func (b *backendStub) Submit(ctx context.Context, req scheduler.SubmitRequest) (scheduler.SubmitResponse, error) {
	b.last = req
	if b.err != nil {
		return scheduler.SubmitResponse{}, b.err
	}
	return scheduler.SubmitResponse{Response: b.reply}, nil
}

func (b *backendStub) RequestSession(ctx context.Context, req scheduler.SessionRequest) (scheduler.SessionRequestResponse, error) {
	b.lastRequest = req
	if b.err != nil {
		return scheduler.SessionRequestResponse{}, b.err
	}
	return scheduler.SessionRequestResponse{Message: b.ack}, nil
}

type burstRecorder struct {
	mu     sync.Mutex
	bursts []string
}

func (r *burstRecorder) Burst(principalID, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bursts = append(r.bursts, principalID+"/"+role)
}

func TestChatSubmitRelaysReplyAndTriggersBurst(t *testing.T) {
	backend := &backendStub{reply: "Scheduled a Python session for Monday 2 PM."}
	bursts := &burstRecorder{}
	svc := NewChatService(backend, bursts, validator.New(), testLogger())

	resp, err := svc.Submit(context.Background(), "t-1", dto.RoleTeacher, dto.ChatRequest{Message: "I'm available Monday 2-4 PM"})
	require.NoError(t, err)
	require.Equal(t, "Scheduled a Python session for Monday 2 PM.", resp.Reply)
	require.False(t, resp.Fallback)
	require.True(t, backend.last.IsTeacher)
	require.Equal(t, []string{"t-1/teacher"}, bursts.bursts)
}

func TestChatSubmitFallsBackWhenBackendUnreachable(t *testing.T) {
	backend := &backendStub{err: fmt.Errorf("connection refused")}
	bursts := &burstRecorder{}
	svc := NewChatService(backend, bursts, validator.New(), testLogger())

	resp, err := svc.Submit(context.Background(), "st-1", dto.RoleStudent, dto.ChatRequest{Message: "I'm free Friday morning"})
	require.NoError(t, err, "backend failures never surface as errors")
	require.True(t, resp.Fallback)
	require.NotEmpty(t, resp.Reply)
	require.Len(t, bursts.bursts, 1, "burst still runs; the backend may have written before failing")
}

func TestChatSubmitRejectsEmptyMessage(t *testing.T) {
	svc := NewChatService(&backendStub{}, nil, validator.New(), testLogger())

	_, err := svc.Submit(context.Background(), "st-1", dto.RoleStudent, dto.ChatRequest{})
	require.Error(t, err)

	_, err = svc.Submit(context.Background(), "st-1", dto.RoleStudent, dto.ChatRequest{Message: "<script>alert('x')</script>"})
	require.Error(t, err, "nothing left after sanitization")
}

func TestRequestSessionForwardsStructuredRequest(t *testing.T) {
	backend := &backendStub{ack: "Session request received! We'll match you with a teacher."}
	bursts := &burstRecorder{}
	svc := NewChatService(backend, bursts, validator.New(), testLogger())

	result, err := svc.RequestSession(context.Background(), "st-1", dto.RoleStudent, dto.SessionRequestCreate{
		Subject:   "Python",
		Date:      "2026-09-07",
		StartTime: "14:00:00",
		EndTime:   "16:00:00",
	})
	require.NoError(t, err)
	require.Equal(t, "Session request received! We'll match you with a teacher.", result.Message)
	require.Equal(t, "st-1", backend.lastRequest.StudentID)
	require.Equal(t, "Python", backend.lastRequest.Subject)
	require.Equal(t, []string{"st-1/student"}, bursts.bursts)
}

func TestRequestSessionSurfacesBackendFailure(t *testing.T) {
	backend := &backendStub{err: fmt.Errorf("connection refused")}
	bursts := &burstRecorder{}
	svc := NewChatService(backend, bursts, validator.New(), testLogger())

	_, err := svc.RequestSession(context.Background(), "st-1", dto.RoleStudent, dto.SessionRequestCreate{
		Subject:   "Python",
		Date:      "2026-09-07",
		StartTime: "14:00:00",
		EndTime:   "16:00:00",
	})
	require.Error(t, err, "structured requests surface failures instead of falling back")
	require.Empty(t, bursts.bursts, "no refresh when the backend rejected the request")
}

func TestRequestSessionRejectsMalformedTimes(t *testing.T) {
	svc := NewChatService(&backendStub{}, nil, validator.New(), testLogger())

	_, err := svc.RequestSession(context.Background(), "st-1", dto.RoleStudent, dto.SessionRequestCreate{
		Subject:   "Python",
		Date:      "next monday",
		StartTime: "2pm",
		EndTime:   "4pm",
	})
	require.Error(t, err)
}

func TestChatGreetingPerRole(t *testing.T) {
	svc := NewChatService(&backendStub{}, nil, validator.New(), testLogger())

	require.Contains(t, svc.Greeting(dto.RoleTeacher), "availability")
	require.NotEqual(t, svc.Greeting(dto.RoleTeacher), svc.Greeting(dto.RoleStudent))
}
