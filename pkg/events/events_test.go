package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"workboard/pkg/domain"
)

func sampleNotification() domain.Notification {
	return domain.Notification{
		ID:        "n-1",
		UserID:    "u-1",
		Type:      domain.NotifyAssignment,
		Title:     "New assignment",
		Body:      "You were assigned to part p-1",
		CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey(domain.NotifyRoleChange); got != "notification.role_change" {
		t.Fatalf("routing key = %q", got)
	}
	if got := RoutingKey(""); got != "notification.unknown" {
		t.Fatalf("empty type routing key = %q", got)
	}
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(sampleNotification(), "rid-1")
	if env.ID != "n-1" || env.Type != "notification.assignment" || env.RequestID != "rid-1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if !env.OccurredAt.Equal(sampleNotification().CreatedAt) {
		t.Fatalf("occurred_at = %v", env.OccurredAt)
	}
	msg := publishing(env, []byte("{}"))
	if msg.Type != env.Type || msg.CorrelationId != "rid-1" || msg.MessageId != "n-1" {
		t.Fatalf("unexpected amqp message: %+v", msg)
	}
}

func TestNewAMQPPublisherRequiresURL(t *testing.T) {
	if _, err := NewAMQPPublisher(" ", ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestRedisStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	pub, err := NewRedisStreamPublisher(client, "", 0)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })

	ctx := context.Background()
	if err := pub.PublishNotification(ctx, NewEnvelope(sampleNotification(), "")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	reader := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = reader.Close() })
	entries, err := reader.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stream entries = %d, want 1", len(entries))
	}
	if entries[0].Values["type"] != "notification.assignment" {
		t.Fatalf("unexpected values: %v", entries[0].Values)
	}
	var env Envelope
	if err := json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &env); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if env.Data.UserID != "u-1" || env.Data.Title != "New assignment" {
		t.Fatalf("unexpected payload: %+v", env)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishNotification(context.Background(), Envelope{}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}
