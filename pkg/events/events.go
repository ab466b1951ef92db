// Package events fans created notifications out to external consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"workboard/pkg/domain"
)

// Envelope is the payload written for every notification event.
type Envelope struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	OccurredAt time.Time           `json:"occurred_at"`
	RequestID  string              `json:"request_id,omitempty"`
	Data       domain.Notification `json:"data"`
}

// Publisher delivers notification events. Publish failures never undo the
// stored notification; callers log them.
type Publisher interface {
	PublishNotification(ctx context.Context, env Envelope) error
	Close() error
}

// RoutingKey is "notification.<type>".
func RoutingKey(t domain.NotificationType) string {
	if t == "" {
		return "notification.unknown"
	}
	return "notification." + string(t)
}

// NewEnvelope wraps n. The event id reuses the notification id.
func NewEnvelope(n domain.Notification, requestID string) Envelope {
	return Envelope{
		ID:         n.ID,
		Type:       RoutingKey(n.Type),
		OccurredAt: n.CreatedAt,
		RequestID:  requestID,
		Data:       n,
	}
}

func (e Envelope) encode() ([]byte, error) {
	return json.Marshal(e)
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishNotification(context.Context, Envelope) error { return nil }
func (Nop) Close() error { return nil }
