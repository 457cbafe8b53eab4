// Package events publishes catalog events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/course-catalog/infrastructure/circuitbreaker"
	infraevents "github.com/jonesrussell/course-catalog/infrastructure/events"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
)

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// Publisher publishes catalog events to Redis Streams.
// A nil *Publisher is valid and publishes nothing. After repeated XADD
// failures publishing is skipped until the breaker lets a probe through.
type Publisher struct {
	client  *redis.Client
	breaker *circuitbreaker.Breaker
	log     infralogger.Logger
}

// NewPublisher creates a new event publisher.
// Returns nil if client is nil.
func NewPublisher(client *redis.Client, log infralogger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		log.Warn("Event publisher circuit changed state",
			infralogger.String("from", from.String()),
			infralogger.String("to", to.String()),
		)
	}
	return &Publisher{
		client:  client,
		breaker: circuitbreaker.New(breakerCfg),
		log:     log,
	}
}

// Publish appends an event to the stream, filling in ID and timestamp.
func (p *Publisher) Publish(ctx context.Context, event infraevents.CatalogEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var result *redis.StringCmd
	publishErr := p.breaker.Execute(func() error {
		result = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: infraevents.StreamName,
			Values: map[string]any{
				"event": string(payload),
			},
		})
		return result.Err()
	})
	if publishErr != nil {
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published catalog event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("course_id", event.CourseID),
		infralogger.String("stream_id", result.Val()),
	)

	return nil
}

// PublishAsync publishes an event in the background.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(event infraevents.CatalogEvent) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				infralogger.String("event_type", string(event.EventType)),
				infralogger.String("course_id", event.CourseID),
				infralogger.Error(err),
			)
		}
	}()
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.client.Close()
}
