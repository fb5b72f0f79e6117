package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorlink-api/internal/dto"
)

func TestEventIngestDispatchesToSubscribers(t *testing.T) {
	svc := NewEventService(nil, nil, "tutorlink", testLogger())

	var (
		mu       sync.Mutex
		received []dto.ChangeEvent
	)
	svc.Subscribe(func(event dto.ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
	})

	event, err := svc.Ingest(context.Background(), []byte(`{"resource":"sessions","action":"insert","teacher_id":"t-1"}`))
	require.NoError(t, err)
	require.Equal(t, dto.EventResourceSessions, event.Resource)
	require.False(t, event.EmittedAt.IsZero())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Equal(t, "t-1", received[0].TeacherID)
}

func TestEventIngestRejectsInvalidPayload(t *testing.T) {
	svc := NewEventService(nil, nil, "tutorlink", testLogger())

	_, err := svc.Ingest(context.Background(), []byte(`{"resource":"grades","action":"insert"}`))
	require.ErrorIs(t, err, ErrInvalidEvent)

	_, err = svc.Ingest(context.Background(), []byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidEvent)

	_, err = svc.Ingest(context.Background(), []byte(`{"resource":"sessions"}`))
	require.ErrorIs(t, err, ErrInvalidEvent, "action is required")
}

func TestEventIngestPublishesToRedisChannel(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	svc := NewEventService(redisClient, nil, "tutorlink", testLogger())

	pubsub := redisClient.Subscribe(context.Background(), "tutorlink:events")
	defer pubsub.Close()
	_, err = pubsub.Receive(context.Background())
	require.NoError(t, err)

	_, err = svc.Ingest(context.Background(), []byte(`{"resource":"session_enrollments","action":"insert","student_id":"st-1"}`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := pubsub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var envelope eventEnvelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
	require.Equal(t, "st-1", envelope.Event.StudentID)
	require.NotEmpty(t, envelope.Source)
}

func TestRedisConsumerResubscribesAfterConnectionLoss(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()

	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	defer redisClient.Close()

	svc := NewEventService(redisClient, nil, "tutorlink", testLogger()).(*eventService)

	var (
		mu       sync.Mutex
		received int
	)
	svc.Subscribe(func(dto.ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		received++
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return received
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.consumeRedis(ctx)

	envelope, err := json.Marshal(eventEnvelope{Source: "peer-node", Event: dto.ChangeEvent{Resource: dto.EventResourceSessions, Action: dto.EventActionInsert}})
	require.NoError(t, err)

	// Republish until the subscription is in place and sees one event.
	require.Eventually(t, func() bool {
		redisClient.Publish(context.Background(), "tutorlink:events", envelope)
		return count() >= 1
	}, 2*time.Second, 50*time.Millisecond)

	// Drop the server out from under the subscription, then bring it back
	// on the same address.
	server.Close()
	server = miniredis.NewMiniRedis()
	require.NoError(t, server.StartAddr(addr))
	defer server.Close()

	before := count()
	require.Eventually(t, func() bool {
		redisClient.Publish(context.Background(), "tutorlink:events", envelope)
		return count() > before
	}, 10*time.Second, 100*time.Millisecond, "consumer must come back after the connection loss")
}

func TestEventHandleEnvelopeDropsOwnEvents(t *testing.T) {
	raw := NewEventService(nil, nil, "tutorlink", testLogger()).(*eventService)

	var count int
	raw.Subscribe(func(dto.ChangeEvent) { count++ })

	own, err := json.Marshal(eventEnvelope{Source: raw.nodeID, Event: dto.ChangeEvent{Resource: dto.EventResourceSessions, Action: dto.EventActionUpdate}})
	require.NoError(t, err)
	raw.handleEnvelope(own)
	require.Zero(t, count, "events published by this node are not re-dispatched")

	other, err := json.Marshal(eventEnvelope{Source: "other-node", Event: dto.ChangeEvent{Resource: dto.EventResourceSessions, Action: dto.EventActionUpdate}})
	require.NoError(t, err)
	raw.handleEnvelope(other)
	require.Equal(t, 1, count)
}
