package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/observability"
)

const (
	gradingFeedBufferSize = 16
	// GradingStatusChanged is emitted after every successful lifecycle transition.
	GradingStatusChanged = "grading.status_changed"
	// GradingResultsReady is emitted once aggregation finished for a task.
	GradingResultsReady = "grading.results_ready"
)

// GradingEventBus fans lifecycle events out to local websocket feeds and to other nodes.
type GradingEventBus interface {
	Publish(ctx context.Context, event dto.GradingEventResponse) error
	Subscribe(taskID uint) (<-chan dto.GradingEventResponse, func())
	Start(ctx context.Context)
}

type gradingEventBus struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *gradingBroker
	nodeID       string
}

type gradingEnvelope struct {
	Source string                   `json:"source"`
	Event  dto.GradingEventResponse `json:"event"`
	SentAt time.Time                `json:"sent_at"`
}

type gradingBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.GradingEventResponse]struct{}
}

// NewGradingEventBus constructs an event bus. Redis and NATS are optional.
func NewGradingEventBus(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) GradingEventBus {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &gradingEventBus{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "grading_events").Logger(),
		broker: &gradingBroker{
			subscribers: make(map[uint]map[chan dto.GradingEventResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (b *gradingEventBus) Start(ctx context.Context) {
	if b.redis != nil && b.redisChannel != "" {
		go b.consumeRedis(ctx)
	}
	if b.nats != nil && b.natsSubject != "" {
		go b.consumeNATS(ctx)
	}
}

func (b *gradingEventBus) Publish(ctx context.Context, event dto.GradingEventResponse) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.broker.broadcast(event)

	payload, err := json.Marshal(gradingEnvelope{
		Source: b.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if b.redis != nil && b.redisChannel != "" {
		if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (b *gradingEventBus) Subscribe(taskID uint) (<-chan dto.GradingEventResponse, func()) {
	channel := make(chan dto.GradingEventResponse, gradingFeedBufferSize)

	b.broker.subscribe(taskID, channel)
	observability.GradingFeedClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			b.broker.unsubscribe(taskID, channel)
			observability.GradingFeedClients().Dec()
		})
	}

	return channel, cleanup
}

func (b *gradingEventBus) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error().Err(err).Msg("grading events redis subscription closed")
			return
		}
		b.handleEnvelope([]byte(msg.Payload))
	}
}

func (b *gradingEventBus) consumeNATS(ctx context.Context) {
	sub, err := b.nats.Subscribe(b.natsSubject, func(msg *nats.Msg) {
		b.handleEnvelope(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats grading subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain grading nats subscription")
		}
	}()
}

func (b *gradingEventBus) handleEnvelope(payload []byte) {
	var envelope gradingEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		b.logger.Warn().Err(err).Msg("invalid grading event payload")
		return
	}

	if envelope.Source == b.nodeID || envelope.Event.TaskID == 0 {
		return
	}

	b.broker.broadcast(envelope.Event)
}

func (g *gradingBroker) subscribe(taskID uint, ch chan dto.GradingEventResponse) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.subscribers[taskID]; !exists {
		g.subscribers[taskID] = make(map[chan dto.GradingEventResponse]struct{})
	}
	g.subscribers[taskID][ch] = struct{}{}
}

func (g *gradingBroker) unsubscribe(taskID uint, ch chan dto.GradingEventResponse) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if subscribers, ok := g.subscribers[taskID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(g.subscribers, taskID)
		}
	}
}

func (g *gradingBroker) broadcast(event dto.GradingEventResponse) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for ch := range g.subscribers[event.TaskID] {
		select {
		case ch <- event:
		default:
		}
	}
}
