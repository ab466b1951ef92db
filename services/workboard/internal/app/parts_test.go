package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"workboard/internal/metrics"
	"workboard/pkg/domain"
	"workboard/pkg/store"
)

func TestAssignPartRejectsUserAtCapacity(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(2))
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartAssigned, nil)
	f.part(t, "b", "p", "u", domain.PartInProgress, nil)
	f.part(t, "c", "p", "", domain.PartBlocked, nil)

	err := f.app.AssignPart(context.Background(), "c", "u")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if got := f.partStatus(t, "c"); got != domain.PartBlocked {
		t.Fatalf("rejected part status changed to %s", got)
	}
	if len(f.pub.sent) != 0 {
		t.Fatalf("no notification expected, got %d", len(f.pub.sent))
	}
	if f.metrics.assignments[metrics.OutcomeCapacityExceeded] != 1 {
		t.Fatalf("assignment metrics: %v", f.metrics.assignments)
	}
}

func TestAssignPartSucceedsBelowCapacity(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(2))
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartAssigned, nil)
	f.part(t, "b", "p", "", domain.PartCompleted, nil)
	ctx := context.Background()

	if err := f.app.AssignPart(ctx, "b", "u"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	p, _, _ := f.store.GetPart(ctx, "b")
	if p.AssignedUserID != "u" || p.Status != domain.PartAssigned || !p.UpdatedAt.Equal(testNow) {
		t.Fatalf("unexpected part after assign: %+v", p)
	}
	if got := f.progress(t, "p"); got != 0 {
		t.Fatalf("progress = %v, want 0 after completed part reset", got)
	}

	notes, err := f.store.ListNotifications(ctx, "u", 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	n := notes[0]
	if n.Type != domain.NotifyAssignment || n.Title != "New assignment" || n.Body != "You were assigned to part b" || n.Read {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if len(f.pub.sent) != 1 || f.pub.sent[0].Type != "notification.assignment" {
		t.Fatalf("unexpected published events: %+v", f.pub.sent)
	}
}

func TestAssignPartCountsPartAlreadyHeldByTarget(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(1))
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartInProgress, nil)

	if err := f.app.AssignPart(context.Background(), "a", "u"); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("reassigning own part at capacity: err = %v, want ErrCapacityExceeded", err)
	}
}

func TestAssignPartNotFound(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(3))

	if err := f.app.AssignPart(context.Background(), "missing", "u"); !errors.Is(err, ErrPartNotFound) {
		t.Fatalf("missing part: err = %v", err)
	}
	if err := f.app.AssignPart(context.Background(), "missing", "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: err = %v", err)
	}
	if f.metrics.assignments[metrics.OutcomeNotFound] != 2 {
		t.Fatalf("assignment metrics: %v", f.metrics.assignments)
	}
}

func TestAssignPartCapacityCheckedBeforePartLookup(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(0))

	if err := f.app.AssignPart(context.Background(), "missing", "u"); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestAssignPartChecksDoNotReserve(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(1))
	f.project(t, "p")
	f.part(t, "a", "p", "", domain.PartBlocked, nil)
	f.part(t, "b", "p", "", domain.PartBlocked, nil)
	ctx := context.Background()

	// Two callers that both pass the check before either writes.
	if err := f.app.checkCapacity(ctx, "u"); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if err := f.app.checkCapacity(ctx, "u"); err != nil {
		t.Fatalf("second check: %v", err)
	}
	_, _ = f.store.AssignPart(ctx, "a", "u", testNow)
	_, _ = f.store.AssignPart(ctx, "b", "u", testNow)
	if n, _ := f.app.ActiveCount(ctx, "u"); n != 2 {
		t.Fatalf("active = %d, want 2 over capacity 1", n)
	}
}

func TestCreatePartWithAssigneeAtCapacityWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(1))
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartReview, nil)
	ctx := context.Background()

	_, err := f.app.CreatePart(ctx, PartInput{ProjectID: "p", Title: "new", AssignedUserID: "u"})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	parts, _ := f.store.ListParts(ctx, store.PartFilter{ProjectID: "p"})
	if len(parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(parts))
	}
}

func TestCreatePart(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(2))
	f.project(t, "p")
	f.part(t, "done", "p", "", domain.PartCompleted, nil)
	ctx := context.Background()
	deadline := time.Date(2026, 7, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))

	part, err := f.app.CreatePart(ctx, PartInput{
		ProjectID:      "p",
		Title:          " draft chapter ",
		AssignedUserID: "u",
		Deadline:       &deadline,
		Checklist:      []map[string]any{{"item": "outline", "done": false}},
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if part.ID == "" || part.Title != "draft chapter" || part.Status != domain.PartAssigned || part.Stage != "assigned" {
		t.Fatalf("unexpected part: %+v", part)
	}
	if part.Deadline.Location() != time.UTC || !part.Deadline.Equal(deadline) {
		t.Fatalf("deadline not normalised to UTC: %v", part.Deadline)
	}
	if part.Files == nil || len(part.Checklist) != 1 {
		t.Fatalf("aux lists not stored: %+v", part)
	}
	if got := f.progress(t, "p"); got != 50 {
		t.Fatalf("progress = %v, want 50", got)
	}
	if len(f.pub.sent) != 0 {
		t.Fatal("creating a part must not notify")
	}
}

func TestCreatePartValidation(t *testing.T) {
	f := newFixture(t)
	f.project(t, "p")
	ctx := context.Background()

	if _, err := f.app.CreatePart(ctx, PartInput{Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing project id: err = %v", err)
	}
	if _, err := f.app.CreatePart(ctx, PartInput{ProjectID: "p"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing title: err = %v", err)
	}
	if _, err := f.app.CreatePart(ctx, PartInput{ProjectID: "nope", Title: "x"}); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("missing project: err = %v", err)
	}
	if _, err := f.app.CreatePart(ctx, PartInput{ProjectID: "p", Title: "x", AssignedUserID: "ghost"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing assignee: err = %v", err)
	}
}

func TestSetPartStatusRejectsUnknownWithoutMutation(t *testing.T) {
	f := newFixture(t)
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartInProgress, nil)

	for _, s := range []domain.PartStatus{"", "done", "COMPLETED", "archived"} {
		if err := f.app.SetPartStatus(context.Background(), "a", s); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("status %q: err = %v", s, err)
		}
	}
	if got := f.partStatus(t, "a"); got != domain.PartInProgress {
		t.Fatalf("status mutated to %s", got)
	}
	if err := f.app.SetPartStatus(context.Background(), "missing", "done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("status is validated before lookup: err = %v", err)
	}
}

func TestSetPartStatusAllowsEveryTransition(t *testing.T) {
	f := newFixture(t)
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartAssigned, nil)
	f.part(t, "b", "p", "u", domain.PartAssigned, nil)
	ctx := context.Background()

	for _, from := range domain.PartStatuses {
		for _, to := range domain.PartStatuses {
			if from == to {
				continue
			}
			if err := f.app.SetPartStatus(ctx, "a", from); err != nil {
				t.Fatalf("set %s: %v", from, err)
			}
			if err := f.app.SetPartStatus(ctx, "a", to); err != nil {
				t.Fatalf("%s -> %s: %v", from, to, err)
			}
			want := 0.0
			if to == domain.PartCompleted {
				want = 50
			}
			if got := f.progress(t, "p"); got != want {
				t.Fatalf("%s -> %s: progress = %v, want %v", from, to, got, want)
			}
		}
	}

	if err := f.app.SetPartStatus(ctx, "missing", domain.PartReview); !errors.Is(err, ErrPartNotFound) {
		t.Fatalf("missing part: err = %v", err)
	}
}

func TestListPartsFilters(t *testing.T) {
	f := newFixture(t)
	f.project(t, "p")
	f.project(t, "q")
	f.part(t, "a", "p", "u", domain.PartAssigned, nil)
	f.part(t, "b", "p", "v", domain.PartReview, nil)
	f.part(t, "c", "q", "u", domain.PartReview, nil)
	ctx := context.Background()

	got, err := f.app.ListParts(ctx, PartQuery{UserID: "u", Status: "review"})
	if err != nil {
		t.Fatalf("list parts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected parts: %+v", got)
	}
	all, _ := f.app.ListParts(ctx, PartQuery{})
	if len(all) != 3 {
		t.Fatalf("all parts = %d, want 3", len(all))
	}
}
