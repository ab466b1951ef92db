package app

import (
	"context"
	"errors"
	"testing"

	"workboard/pkg/domain"
)

func TestResolveCapacity(t *testing.T) {
	f := newFixture(t)
	f.role(t, "manager", intPtr(5))
	f.role(t, "guest", nil)
	f.user(t, "explicit", "manager", intPtr(2))
	f.user(t, "explicit-zero", "manager", intPtr(0))
	f.user(t, "from-role", "manager", nil)
	f.user(t, "role-without-default", "guest", nil)
	f.user(t, "unknown-role", "ghost", nil)

	cases := map[string]int{
		"explicit":             2,
		"explicit-zero":        0,
		"from-role":            5,
		"role-without-default": 0,
		"unknown-role":         0,
	}
	for id, want := range cases {
		got, err := f.app.ResolveCapacity(context.Background(), id)
		if err != nil {
			t.Fatalf("%s: resolve capacity: %v", id, err)
		}
		if got != want {
			t.Fatalf("%s: capacity = %d, want %d", id, got, want)
		}
	}

	if _, err := f.app.ResolveCapacity(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: err = %v, want ErrUserNotFound", err)
	}
}

func TestActiveCountIgnoresCompletedAndBlocked(t *testing.T) {
	f := newFixture(t)
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartAssigned, nil)
	f.part(t, "b", "p", "u", domain.PartInProgress, nil)
	f.part(t, "c", "p", "u", domain.PartReview, nil)
	f.part(t, "d", "p", "u", domain.PartCompleted, nil)
	f.part(t, "e", "p", "u", domain.PartBlocked, nil)
	f.part(t, "f", "p", "other", domain.PartAssigned, nil)

	got, err := f.app.ActiveCount(context.Background(), "u")
	if err != nil {
		t.Fatalf("active count: %v", err)
	}
	if got != 3 {
		t.Fatalf("active = %d, want 3", got)
	}
}

func TestWorkloadClampsAvailable(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u", "worker", intPtr(1))
	f.project(t, "p")
	f.part(t, "a", "p", "u", domain.PartAssigned, nil)
	f.part(t, "b", "p", "u", domain.PartReview, nil)

	w, err := f.app.Workload(context.Background(), "u")
	if err != nil {
		t.Fatalf("workload: %v", err)
	}
	if w != (domain.Workload{Capacity: 1, Active: 2, Available: 0}) {
		t.Fatalf("unexpected workload: %+v", w)
	}

	if _, err := f.app.Workload(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: err = %v", err)
	}
}
