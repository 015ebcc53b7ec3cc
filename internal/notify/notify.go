// Package notify tells external listeners about committed giro transitions.
// Delivery is best effort and never feeds back into the caller.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

const publishTimeout = 3 * time.Second

type Event struct {
	Type              domain.GiroEventType `json:"type"`
	GiroID            uuid.UUID            `json:"giro_id"`
	Status            domain.GiroStatus    `json:"status"`
	MinoristaID       *uuid.UUID           `json:"minorista_id,omitempty"`
	TransferencistaID *uuid.UUID           `json:"transferencista_id,omitempty"`
	OccurredAt        time.Time            `json:"occurred_at"`
}

func EventFor(g *domain.Giro, typ domain.GiroEventType) Event {
	return Event{
		Type:              typ,
		GiroID:            g.ID,
		Status:            g.Status,
		MinoristaID:       g.MinoristaID,
		TransferencistaID: g.TransferencistaID,
		OccurredAt:        g.UpdatedAt,
	}
}

type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type RedisPublisher struct {
	client  redis.Cmdable
	channel string
	timeout time.Duration
}

func NewRedisPublisher(client redis.Cmdable, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, timeout: publishTimeout}
}

// Notify publishes in the background. The request context is detached so a
// finished request does not cancel delivery.
func (p *RedisPublisher) Notify(ctx context.Context, e Event) {
	log := logging.FromContext(ctx)
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		if err := p.Publish(pctx, e); err != nil {
			log.Warn("giro notification failed", "giro_id", e.GiroID, "type", e.Type, "error", err)
		}
	}()
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, e Event) {
	logging.FromContext(ctx).Info("giro notification",
		"giro_id", e.GiroID,
		"type", e.Type,
		"status", e.Status,
	)
}

// Listen decodes events from channel until ctx is done. Malformed payloads
// are logged and skipped.
func Listen(ctx context.Context, client *redis.Client, channel string, handle func(context.Context, Event)) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("Listen: subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			e, err := Decode(msg.Payload)
			if err != nil {
				logging.FromContext(ctx).Warn("discarding malformed notification", "error", err)
				continue
			}
			handle(ctx, e)
		}
	}
}

func Decode(payload string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Event{}, fmt.Errorf("Decode: %w", err)
	}
	return e, nil
}
