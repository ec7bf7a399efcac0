// Package events publishes structured pipeline events to Redis Streams.
// The publisher is feature-flagged: a nil *Publisher is a safe no-op, so the
// pipeline runs unchanged when Redis is disabled.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

// Stream names for pipeline events.
const (
	ErrorStream  = "media:events:errors"
	StatusStream = "media:events:status"
)

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// EventType identifies the kind of pipeline event.
type EventType string

const (
	PreviewFailed    EventType = "media.preview_failed"
	PreviewExhausted EventType = "media.preview_exhausted"
	StatusChecked    EventType = "media.status_checked"
	ClientError      EventType = "media.client_error"
)

// Event is one structured pipeline event.
type Event struct {
	EventID   uuid.UUID      `json:"event_id"`
	EventType EventType      `json:"event_type"`
	URL       string         `json:"url"`
	Category  string         `json:"category,omitempty"`
	Message   string         `json:"message,omitempty"`
	Failures  int            `json:"failures,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher publishes pipeline events to Redis Streams.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
}

// NewPublisher creates a new event publisher. Returns nil if client is nil.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{
		client: client,
		log:    log,
	}
}

// Publish sends an event to the given Redis stream.
func (p *Publisher) Publish(ctx context.Context, stream string, event Event) error {
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

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		if p.log != nil {
			p.log.Error("Failed to publish event",
				logger.String("event_type", string(event.EventType)),
				logger.String("url", event.URL),
				logger.Error(publishErr),
			)
		}
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	if p.log != nil {
		p.log.Debug("Published event",
			logger.String("event_type", string(event.EventType)),
			logger.String("url", event.URL),
			logger.String("stream_id", result.Val()),
		)
	}

	return nil
}

// PublishAsync publishes an event asynchronously. Errors are logged but not
// returned.
func (p *Publisher) PublishAsync(stream string, event Event) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, stream, event); err != nil && p.log != nil {
			p.log.Error("Async publish failed",
				logger.String("event_type", string(event.EventType)),
				logger.String("url", event.URL),
				logger.Error(err),
			)
		}
	}()
}

// ReportPreviewFailure implements the preview generator's error sink: every
// generation failure lands on the error stream with the current consecutive
// failure count for the URL.
func (p *Publisher) ReportPreviewFailure(ctx context.Context, rawURL string, category models.Category, failures int, cause error) {
	if p == nil {
		return
	}

	eventType := PreviewFailed
	if errors.Is(cause, models.ErrRetriesExhausted) {
		eventType = PreviewExhausted
	}

	_ = p.Publish(ctx, ErrorStream, Event{
		EventType: eventType,
		URL:       rawURL,
		Category:  string(category),
		Message:   cause.Error(),
		Failures:  failures,
	})
}

// Deliver implements the monitor's status sink, forwarding each check-cycle
// outcome to the status stream.
func (p *Publisher) Deliver(ctx context.Context, item models.TrackedItem) {
	if p == nil || item.LastStatus == nil {
		return
	}

	p.PublishAsync(StatusStream, Event{
		EventType: StatusChecked,
		URL:       item.URL,
		Category:  string(item.Category),
		Message:   item.LastStatus.Message,
		Payload: map[string]any{
			"status":   item.LastStatus.Status,
			"metadata": item.LastStatus.Metadata,
		},
	})
}
