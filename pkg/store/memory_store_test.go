package store

import (
	"context"
	"testing"
	"time"

	"workboard/pkg/domain"
)

func seedParts(t *testing.T, s *MemoryStore, parts ...domain.Part) {
	t.Helper()
	for _, p := range parts {
		if err := s.CreatePart(context.Background(), p); err != nil {
			t.Fatalf("create part %s: %v", p.ID, err)
		}
	}
}

func TestMemoryStorePartFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedParts(t, s,
		domain.Part{ID: "p1", ProjectID: "a", AssignedUserID: "u1", Status: domain.PartAssigned},
		domain.Part{ID: "p2", ProjectID: "a", AssignedUserID: "u1", Status: domain.PartCompleted},
		domain.Part{ID: "p3", ProjectID: "b", AssignedUserID: "u1", Status: domain.PartReview},
		domain.Part{ID: "p4", ProjectID: "b", AssignedUserID: "u2", Status: domain.PartBlocked},
	)

	active, err := s.CountParts(ctx, PartFilter{AssignedUserID: "u1", Statuses: domain.ActiveStatuses})
	if err != nil {
		t.Fatalf("count parts: %v", err)
	}
	if active != 2 {
		t.Fatalf("active count = %d, want 2", active)
	}

	parts, err := s.ListParts(ctx, PartFilter{ProjectID: "a"})
	if err != nil {
		t.Fatalf("list parts: %v", err)
	}
	if len(parts) != 2 || parts[0].ID != "p1" || parts[1].ID != "p2" {
		t.Fatalf("unexpected project parts: %+v", parts)
	}

	limited, err := s.ListParts(ctx, PartFilter{Limit: 3})
	if err != nil {
		t.Fatalf("list parts with limit: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("limited len = %d, want 3", len(limited))
	}
}

func TestMemoryStoreUpdatesReportMatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedParts(t, s, domain.Part{ID: "p1", ProjectID: "a", Status: domain.PartBlocked})

	ok, err := s.AssignPart(ctx, "p1", "u9", at)
	if err != nil || !ok {
		t.Fatalf("assign existing part: ok=%v err=%v", ok, err)
	}
	p, _, _ := s.GetPart(ctx, "p1")
	if p.AssignedUserID != "u9" || p.Status != domain.PartAssigned || !p.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected part after assign: %+v", p)
	}

	ok, err = s.SetPartStatus(ctx, "missing", domain.PartCompleted, at)
	if err != nil || ok {
		t.Fatalf("status on missing part: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetProjectProgress(ctx, "missing", 50, at)
	if err != nil || ok {
		t.Fatalf("progress on missing project: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreProjectFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, p := range []domain.Project{
		{ID: "x", CreatorID: "u1", Tags: []string{"web", "q3"}},
		{ID: "y", CreatorID: "u2", Tags: []string{"web"}, Archived: true},
		{ID: "z", CreatorID: "u1"},
	} {
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}
	archived := false
	got, err := s.ListProjects(ctx, ProjectFilter{Tag: "web", Archived: &archived})
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("unexpected projects: %+v", got)
	}
	got, err = s.ListProjects(ctx, ProjectFilter{CreatorID: "u1"})
	if err != nil {
		t.Fatalf("list projects by creator: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("creator projects = %d, want 2", len(got))
	}
}

func TestMemoryStoreNotificationTimestamp(t *testing.T) {
	s := NewMemoryStore()
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.CreateNotification(context.Background(), domain.Notification{ID: "n1", UserID: "u1"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if !n.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %v, want %v", n.CreatedAt, fixed)
	}
	list, _ := s.ListNotifications(context.Background(), "u1", 0)
	if len(list) != 1 || list[0].Read {
		t.Fatalf("unexpected notifications: %+v", list)
	}
}
