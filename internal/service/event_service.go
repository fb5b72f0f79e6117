package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/tutorlink-api/internal/dto"
)

// ErrInvalidEvent indicates an ingested payload failed schema validation.
var ErrInvalidEvent = errors.New("invalid change event")

// changeEventSchema constrains what the scheduling backend may post to the
// internal events endpoint.
const changeEventSchema = `{
	"type": "object",
	"required": ["resource", "action"],
	"properties": {
		"resource": {"enum": ["sessions", "session_enrollments"]},
		"action": {"enum": ["insert", "update", "delete"]},
		"record_id": {"type": "string", "maxLength": 64},
		"teacher_id": {"type": "string", "maxLength": 64},
		"student_id": {"type": "string", "maxLength": 64},
		"emitted_at": {"type": "string"}
	}
}`

// EventService distributes session/enrollment change notifications between
// the webhook ingress, other nodes and local subscribers.
type EventService interface {
	// Ingest validates a raw webhook payload, fans it out to local
	// subscribers and publishes it for other nodes.
	Ingest(ctx context.Context, payload []byte) (dto.ChangeEvent, error)
	Subscribe(handler func(dto.ChangeEvent))
	Start(ctx context.Context)
}

type eventService struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	schema      *jsonschema.Schema
	logger      zerolog.Logger
	nodeID      string

	mu       sync.RWMutex
	handlers []func(dto.ChangeEvent)
}

type eventEnvelope struct {
	Source string          `json:"source"`
	Event  dto.ChangeEvent `json:"event"`
	SentAt time.Time       `json:"sent_at"`
}

// NewEventService creates the change-event distribution service.
func NewEventService(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventService {
	schema := jsonschema.MustCompileString("change_event.json", changeEventSchema)

	streamChannel := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":events"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventService{
		redis:       redisClient,
		redisStream: streamChannel,
		nats:        natsConn,
		natsSubject: natsSubject,
		schema:      schema,
		logger:      logger.With().Str("component", "event_service").Logger(),
		nodeID:      uuid.NewString(),
	}
}

func (s *eventService) Subscribe(handler func(dto.ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *eventService) Ingest(ctx context.Context, payload []byte) (dto.ChangeEvent, error) {
	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return dto.ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if err := s.schema.Validate(decoded); err != nil {
		return dto.ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	var event dto.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return dto.ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}

	s.dispatch(event)
	if err := s.publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish change event")
	}

	return event, nil
}

func (s *eventService) dispatch(event dto.ChangeEvent) {
	s.mu.RLock()
	handlers := make([]func(dto.ChangeEvent), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (s *eventService) publish(ctx context.Context, event dto.ChangeEvent) error {
	envelope := eventEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

// consumeRedis keeps the cross-node subscription alive for the lifetime of
// the context, re-subscribing with backoff after a receive failure.
func (s *eventService) consumeRedis(ctx context.Context) {
	backoff := time.Second
	for {
		pubsub := s.redis.Subscribe(ctx, s.redisStream)
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				_ = pubsub.Close()
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn().Err(err).Dur("backoff", backoff).Msg("event redis subscription lost, reconnecting")
				break
			}
			backoff = time.Second
			s.handleEnvelope([]byte(msg.Payload))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "tutorlink-events", func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain events nats subscription")
		}
	}()
}

func (s *eventService) handleEnvelope(data []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid change event envelope")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.dispatch(envelope.Event)
}
