package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/tutorlink-api/internal/dto"
	"github.com/noah-isme/tutorlink-api/internal/models"
	"github.com/noah-isme/tutorlink-api/internal/observability"
	"github.com/noah-isme/tutorlink-api/internal/repository"
)

const (
	feedSendBufferSize = 8
	feedRefreshTimeout = 10 * time.Second
)

// feedBurstDelays spreads post-utterance refreshes to absorb backend
// processing latency before the change-notification path catches up.
var feedBurstDelays = []time.Duration{
	100 * time.Millisecond,
	300 * time.Millisecond,
	600 * time.Millisecond,
	1000 * time.Millisecond,
}

// FeedConnectionOptions wraps metadata extracted during the HTTP upgrade.
type FeedConnectionOptions struct {
	PrincipalID   string
	Role          string
	CorrelationID string
	Context       context.Context
}

// FeedService keeps per-principal relevant-session lists consistent with
// server state and streams applied snapshots to connected clients.
type FeedService interface {
	ListRelevantSessions(ctx context.Context, principalID, role string, asOf time.Time, activeOnly bool) ([]dto.SessionResponse, error)
	ServeConnection(conn *websocket.Conn, opts FeedConnectionOptions)
	Burst(principalID, role string)
	NotifyChange(event dto.ChangeEvent)
	Start(ctx context.Context)
}

// FeedConfig bundles tuning knobs for the feed service.
type FeedConfig struct {
	ChannelBase   string
	PollInterval  time.Duration
	CacheTTL      time.Duration
	RetryAttempts int
}

type feedService struct {
	sessions    repository.SessionRepository
	enrollments repository.EnrollmentRepository
	redis       *redis.Client
	cachePrefix string
	cfg         FeedConfig
	logger      zerolog.Logger
	tracer      trace.Tracer

	mu      sync.Mutex
	feeds   map[string]*feedState
	baseCtx context.Context
}

// feedState is the synchronisation state for one principal's list: a
// monotonic request counter, the last applied snapshot, and the scoped poll
// resource that lives exactly as long as the principal has connected clients.
type feedState struct {
	principalID string
	role        string

	seq     uint64 // monotonic refresh counter, atomic
	mu      sync.Mutex
	applied uint64
	snap    dto.FeedSnapshot
	primed  bool

	clients map[*feedClient]struct{}
	stop    chan struct{}
}

type feedClient struct {
	conn    *websocket.Conn
	send    chan dto.FeedSnapshot
	options FeedConnectionOptions
	service *feedService
	state   *feedState
	closed  chan struct{}
	once    sync.Once
	logger  zerolog.Logger
}

// NewFeedService creates the live session feed service.
func NewFeedService(sessions repository.SessionRepository, enrollments repository.EnrollmentRepository, redisClient *redis.Client, cfg FeedConfig, logger zerolog.Logger) FeedService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}

	cachePrefix := ""
	if cfg.ChannelBase != "" {
		cachePrefix = cfg.ChannelBase + ":feed:last"
	}

	return &feedService{
		sessions:    sessions,
		enrollments: enrollments,
		redis:       redisClient,
		cachePrefix: cachePrefix,
		cfg:         cfg,
		logger:      logger.With().Str("component", "feed_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/tutorlink-api/internal/service/feed"),
		feeds:       make(map[string]*feedState),
		baseCtx:     context.Background(),
	}
}

func (s *feedService) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
}

// ListRelevantSessions returns the sessions a principal should see as of the
// given calendar date (inclusive), ordered by date then start time. Student
// totals are derived from enrollment rows; the stored column is only a cache.
func (s *feedService) ListRelevantSessions(ctx context.Context, principalID, role string, asOf time.Time, activeOnly bool) ([]dto.SessionResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "feed.list", trace.WithAttributes(
		attribute.String("feed.principal_id", principalID),
		attribute.String("feed.role", role),
	))
	defer span.End()

	filter := repository.SessionFilter{AsOf: asOf.Format("2006-01-02"), ActiveOnly: activeOnly}

	var (
		rows []models.Session
		err  error
	)
	if role == dto.RoleTeacher {
		rows, err = s.sessions.ListUpcomingByTeacher(spanCtx, principalID, filter)
	} else {
		rows, err = s.sessions.ListUpcomingByStudent(spanCtx, principalID, filter)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sessions := dto.NewSessionResponseSlice(rows)
	if err := s.applyDerivedTotals(spanCtx, sessions); err != nil {
		s.logger.Warn().Err(err).Msg("failed to derive enrollment totals")
	}

	return sessions, nil
}

func (s *feedService) applyDerivedTotals(ctx context.Context, sessions []dto.SessionResponse) error {
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	counts, err := s.enrollments.CountBySessions(ctx, ids)
	if err != nil {
		return err
	}

	for i := range sessions {
		sessions[i].TotalStudents = counts[sessions[i].ID]
	}

	return nil
}

// Burst schedules the post-utterance refresh cascade for one principal. With
// no connected clients the cascade runs against a transient state that is
// never stored, so it only warms the redis snapshot cache and is released
// when the last delayed refresh completes.
func (s *feedService) Burst(principalID, role string) {
	state, ok := s.lookupState(principalID)
	if !ok {
		state = &feedState{principalID: principalID, role: role}
	}

	go s.refresh(state, "burst", 0)
	for _, delay := range feedBurstDelays {
		delay := delay
		time.AfterFunc(delay, func() {
			s.refresh(state, "burst", 0)
		})
	}
}

// NotifyChange reacts to a change event on sessions or enrollments by
// refreshing the feeds it can affect.
func (s *feedService) NotifyChange(event dto.ChangeEvent) {
	s.mu.Lock()
	targets := make([]*feedState, 0, len(s.feeds))
	for _, state := range s.feeds {
		// Only refresh views somebody is actually watching.
		if len(state.clients) == 0 {
			continue
		}
		if event.TeacherID != "" && state.role == dto.RoleTeacher && state.principalID != event.TeacherID {
			continue
		}
		if event.StudentID != "" && state.role == dto.RoleStudent && state.principalID != event.StudentID {
			continue
		}
		targets = append(targets, state)
	}
	s.mu.Unlock()

	for _, state := range targets {
		go s.refresh(state, "subscription", 0)
	}
}

func (s *feedService) ServeConnection(conn *websocket.Conn, opts FeedConnectionOptions) {
	state := s.stateFor(opts.PrincipalID, opts.Role)

	connCtx := opts.Context
	if connCtx == nil {
		connCtx = s.baseCtx
	}

	client := &feedClient{
		conn:    conn,
		send:    make(chan dto.FeedSnapshot, feedSendBufferSize),
		options: opts,
		service: s,
		state:   state,
		closed:  make(chan struct{}),
		logger: s.logger.With().
			Str("principal_id", opts.PrincipalID).
			Str("correlation_id", opts.CorrelationID).
			Logger(),
	}

	s.register(state, client)
	observability.FeedConnections().Inc()

	if snap, ok := s.primeSnapshot(connCtx, state); ok {
		select {
		case client.send <- snap:
		default:
		}
	}

	go s.refresh(state, "connect", 0)

	go client.writer()
	client.reader()
}

func (s *feedService) lookupState(principalID string) (*feedState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.feeds[principalID]
	return state, ok
}

// stateFor returns the feed state for a principal, creating it on first use.
func (s *feedService) stateFor(principalID, role string) *feedState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.feeds[principalID]; ok {
		return state
	}

	state := &feedState{
		principalID: principalID,
		role:        role,
		clients:     make(map[*feedClient]struct{}),
	}
	s.feeds[principalID] = state
	return state
}

func (s *feedService) register(state *feedState, client *feedClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.clients[client] = struct{}{}
	if state.stop == nil {
		state.stop = make(chan struct{})
		go s.pollLoop(state, state.stop)
	}
	s.logger.Debug().Str("principal_id", state.principalID).Msg("feed client connected")
}

// unregister releases the poll resource and evicts the state when the last
// client leaves, so no refresh keeps running against a view nobody is
// watching. The cached redis snapshot survives as the reconnect primer.
func (s *feedService) unregister(state *feedState, client *feedClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(state.clients, client)
	if len(state.clients) == 0 {
		if state.stop != nil {
			close(state.stop)
			state.stop = nil
		}
		if s.feeds[state.principalID] == state {
			delete(s.feeds, state.principalID)
		}
	}
	s.logger.Debug().Str("principal_id", state.principalID).Msg("feed client disconnected")
}

func (s *feedService) pollLoop(state *feedState, stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(state, "poll", 0)
		case <-stop:
			return
		case <-s.baseCtx.Done():
			return
		}
	}
}

// refresh runs one tagged fetch for the principal's list. The sequence
// counter makes concurrent refreshes safe: an older fetch that completes
// after a newer one has been applied is dropped, never displayed.
func (s *feedService) refresh(state *feedState, trigger string, attempt int) {
	seq := atomic.AddUint64(&state.seq, 1)

	ctx, cancel := context.WithTimeout(s.baseCtx, feedRefreshTimeout)
	defer cancel()

	sessions, err := s.ListRelevantSessions(ctx, state.principalID, state.role, time.Now(), false)
	if err != nil {
		observability.FeedRefreshes().WithLabelValues(trigger, "error").Inc()
		s.logger.Error().Err(err).
			Str("principal_id", state.principalID).
			Str("trigger", trigger).
			Msg("feed refresh failed")
		s.markStale(state)

		if attempt < s.cfg.RetryAttempts {
			backoff := 250 * time.Millisecond << uint(attempt)
			time.AfterFunc(backoff, func() {
				s.refresh(state, "retry", attempt+1)
			})
		}
		return
	}

	state.mu.Lock()
	if seq <= state.applied {
		state.mu.Unlock()
		observability.FeedStaleDrops().Inc()
		observability.FeedRefreshes().WithLabelValues(trigger, "stale").Inc()
		return
	}
	state.applied = seq
	state.snap = dto.FeedSnapshot{
		Sequence:  seq,
		Sessions:  sessions,
		Stale:     false,
		UpdatedAt: time.Now().UTC(),
	}
	state.primed = true
	snapshot := state.snap
	state.mu.Unlock()

	observability.FeedRefreshes().WithLabelValues(trigger, "ok").Inc()
	s.cacheSnapshot(ctx, state.principalID, snapshot)
	s.broadcast(state, snapshot)
}

// markStale keeps the last-known-good list but flags it, instead of clearing
// the view to empty on a failed fetch.
func (s *feedService) markStale(state *feedState) {
	state.mu.Lock()
	if !state.primed || state.snap.Stale {
		state.mu.Unlock()
		return
	}
	state.snap.Stale = true
	snapshot := state.snap
	state.mu.Unlock()

	s.broadcast(state, snapshot)
}

func (s *feedService) broadcast(state *feedState, snapshot dto.FeedSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range state.clients {
		select {
		case client.send <- snapshot:
		default:
			s.logger.Warn().Str("principal_id", state.principalID).Msg("dropping feed snapshot for slow client")
		}
	}
}

func (s *feedService) primeSnapshot(ctx context.Context, state *feedState) (dto.FeedSnapshot, bool) {
	state.mu.Lock()
	if state.primed {
		snap := state.snap
		state.mu.Unlock()
		return snap, true
	}
	state.mu.Unlock()

	if s.redis == nil || s.cachePrefix == "" {
		return dto.FeedSnapshot{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	result, err := s.redis.Get(ctx, fmt.Sprintf("%s:%s", s.cachePrefix, state.principalID)).Result()
	if err != nil {
		return dto.FeedSnapshot{}, false
	}

	var snap dto.FeedSnapshot
	if err := json.Unmarshal([]byte(result), &snap); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached feed snapshot")
		return dto.FeedSnapshot{}, false
	}

	// Cached data predates this process; serve it flagged until a live
	// refresh lands.
	snap.Stale = true
	return snap, true
}

func (s *feedService) cacheSnapshot(ctx context.Context, principalID string, snapshot dto.FeedSnapshot) {
	if s.redis == nil || s.cachePrefix == "" {
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal feed snapshot for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", s.cachePrefix, principalID)
	if err := s.redis.Set(ctx, key, payload, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache feed snapshot")
	}
}

func (c *feedClient) reader() {
	defer c.close()

	for {
		// The feed is server-push only; reads exist to notice the peer
		// closing the connection.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logger.Debug().Err(err).Msg("feed read loop ended")
			return
		}
	}
}

func (c *feedClient) writer() {
	defer c.close()

	for {
		select {
		case snapshot, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(snapshot); err != nil {
				c.logger.Debug().Err(err).Msg("feed write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.logger.Debug().Err(err).Msg("feed ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.unregister(c.state, c)
		_ = c.conn.Close()
	})
}
