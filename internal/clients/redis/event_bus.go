package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

// Event is the wire form published to the events channel.
type Event struct {
	Type   string      `json:"type"`
	UserID uuid.UUID   `json:"user_id"`
	Data   interface{} `json:"data"`
	At     time.Time   `json:"at"`
}

const (
	EventReviewCreated = "review.created"
	EventPriceChanged  = "price.changed"
)

// EventBus publishes pipeline events over redis pub/sub so dashboards and
// downstream consumers can react without polling.
type EventBus interface {
	services.Notifier
	StartForwarder(ctx context.Context, onMsg func(e Event)) error
	Close() error
}

type eventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewEventBus connects using REDIS_ADDR and REDIS_CHANNEL (default
// "pricewatch.events"). A missing REDIS_ADDR is an error; callers that
// want to run without redis use services.NopNotifier.
func NewEventBus(log *logger.Logger) (EventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "pricewatch.events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventBus{
		log:     log.With("service", "RedisEventBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *eventBus) ReviewCreated(ctx context.Context, userID uuid.UUID, review *reviews.ProductMatchReview) {
	b.publish(ctx, Event{Type: EventReviewCreated, UserID: userID, Data: review, At: time.Now().UTC()})
}

func (b *eventBus) PriceChanged(ctx context.Context, userID uuid.UUID, change *pricing.PriceChange) {
	b.publish(ctx, Event{Type: EventPriceChanged, UserID: userID, Data: change, At: time.Now().UTC()})
}

// publish is best effort: a failed publish is logged, never surfaced, so
// the pipeline cannot fail on a flaky bus.
func (b *eventBus) publish(ctx context.Context, e Event) {
	if b == nil || b.rdb == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		b.log.Warn("event marshal failed", "type", e.Type, "error", err)
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.log.Warn("event publish failed", "type", e.Type, "error", err)
	}
}

func (b *eventBus) StartForwarder(ctx context.Context, onMsg func(e Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
					b.log.Warn("event decode failed", "error", err)
					continue
				}
				onMsg(e)
			}
		}
	}()
	return nil
}

func (b *eventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
