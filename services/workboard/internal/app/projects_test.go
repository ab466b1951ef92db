package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"workboard/pkg/domain"
)

func projectIDs(ps []domain.Project) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCreateProjectDefaults(t *testing.T) {
	f := newFixture(t)
	p, err := f.app.CreateProject(context.Background(), ProjectInput{
		Title:     "Handbook",
		CreatorID: "u1",
		Tags:      []string{"docs", " docs ", ""},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.Priority != domain.PriorityMedium || p.Progress != 0 || p.Archived {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "docs" {
		t.Fatalf("tags = %v", p.Tags)
	}
	if p.Metadata == nil {
		t.Fatal("metadata should default to an empty map")
	}

	if _, err := f.app.CreateProject(context.Background(), ProjectInput{Title: "x", CreatorID: "u", Priority: "asap"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad priority: err = %v", err)
	}
	if _, err := f.app.GetProject(context.Background(), "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("missing project: err = %v", err)
	}
}

func TestSearchProjectsSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := testNow.Add(24 * time.Hour)
	late := testNow.Add(96 * time.Hour)
	for _, p := range []domain.Project{
		{ID: "undated", CreatorID: "u1", Progress: 10, Tags: []string{"a"}},
		{ID: "late", CreatorID: "u1", Deadline: &late, Progress: 80, Tags: []string{"a"}},
		{ID: "early", CreatorID: "u2", Deadline: &early, Progress: 40, Tags: []string{"a", "b"}},
		{ID: "archived", CreatorID: "u1", Archived: true, Progress: 100},
	} {
		if err := f.store.CreateProject(ctx, p); err != nil {
			t.Fatalf("seed project: %v", err)
		}
	}

	got, err := f.app.SearchProjects(ctx, ProjectQuery{Tag: "a", Sort: SortDeadline})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if ids := projectIDs(got); len(ids) != 3 || ids[0] != "early" || ids[1] != "late" || ids[2] != "undated" {
		t.Fatalf("deadline order = %v", ids)
	}

	got, _ = f.app.SearchProjects(ctx, ProjectQuery{Sort: SortProgress})
	if ids := projectIDs(got); ids[0] != "archived" || ids[1] != "late" || ids[3] != "undated" {
		t.Fatalf("progress order = %v", ids)
	}

	notArchived := false
	got, _ = f.app.SearchProjects(ctx, ProjectQuery{Owner: "u1", Archived: &notArchived})
	if ids := projectIDs(got); len(ids) != 2 || ids[0] != "undated" || ids[1] != "late" {
		t.Fatalf("owner filter = %v", ids)
	}
}
