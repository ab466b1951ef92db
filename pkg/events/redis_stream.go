package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream used when none is configured.
const DefaultStream = "workboard:events"

// RedisStreamPublisher appends events to a capped Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher uses client; maxLen <= 0 defaults to 10000 entries.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) (*RedisStreamPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}, nil
}

// PublishNotification XADDs the encoded envelope under field "payload".
func (p *RedisStreamPublisher) PublishNotification(ctx context.Context, env Envelope) error {
	body, err := env.encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id": env.ID,
			"type":     env.Type,
			"payload":  string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Close releases the client.
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}
