package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"workboard/pkg/domain"
)

func TestListNotificationsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, title := range []string{"first", "second", "third"} {
		n := domain.Notification{ID: title, UserID: "u", Type: domain.NotifySystem, Title: title, CreatedAt: testNow.Add(time.Duration(i) * time.Minute)}
		if _, err := f.store.CreateNotification(ctx, n); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}
	got, err := f.app.ListNotifications(ctx, "u")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 3 || got[0].ID != "third" || got[2].ID != "first" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestCreateNotificationSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	ctx := context.Background()

	n, err := f.app.CreateNotification(ctx, NotificationInput{UserID: "u", Type: "deadline", Title: "Due soon", Body: "tomorrow"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.Read || !n.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if f.metrics.publishFail != 1 {
		t.Fatalf("publish failures = %d, want 1", f.metrics.publishFail)
	}
	stored, _ := f.app.ListNotifications(ctx, "u")
	if len(stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(stored))
	}
}

func TestCreateNotificationValidation(t *testing.T) {
	f := newFixture(t)
	for name, in := range map[string]NotificationInput{
		"no user":  {Type: "system", Title: "t"},
		"bad type": {UserID: "u", Type: "email", Title: "t"},
		"no title": {UserID: "u", Type: "system"},
	} {
		if _, err := f.app.CreateNotification(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}
