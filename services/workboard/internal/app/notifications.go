package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"workboard/internal/util"
	"workboard/pkg/domain"
	"workboard/pkg/events"
)

const maxNotificationList = 100

// NotificationInput is the request shape for CreateNotification.
type NotificationInput struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// CreateNotification stores an unread notification and then publishes it.
// A publish failure is logged and does not fail the call.
func (a *App) CreateNotification(ctx context.Context, in NotificationInput) (domain.Notification, error) {
	n := domain.Notification{
		ID:     util.NewID(),
		UserID: strings.TrimSpace(in.UserID),
		Type:   domain.NotificationType(strings.TrimSpace(in.Type)),
		Title:  strings.TrimSpace(in.Title),
		Body:   in.Body,
	}
	switch {
	case n.UserID == "":
		return domain.Notification{}, invalidf("user_id required")
	case !n.Type.Valid():
		return domain.Notification{}, invalidf("unknown notification type %q", in.Type)
	case n.Title == "":
		return domain.Notification{}, invalidf("title required")
	}
	n.CreatedAt = a.now()

	saved, err := a.store.CreateNotification(ctx, n)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("save notification: %w", err)
	}
	a.metrics.RecordNotification(string(saved.Type))

	err = a.events.PublishNotification(ctx, events.NewEnvelope(saved, util.RequestIDFromContext(ctx)))
	a.metrics.RecordEventPublish(err == nil)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("publish notification failed", "notification_id", saved.ID, "err", err)
	}
	return saved, nil
}

// ListNotifications returns up to 100 of the user's notifications, newest first.
func (a *App) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	items, err := a.store.ListNotifications(ctx, userID, maxNotificationList)
	if err != nil {
		return nil, fmt.Errorf("list notifications of %s: %w", userID, err)
	}
	slices.SortStableFunc(items, func(x, y domain.Notification) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	return items, nil
}
