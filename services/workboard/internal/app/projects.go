package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"workboard/internal/util"
	"workboard/pkg/domain"
	"workboard/pkg/store"
)

// Project search orderings.
const (
	SortDeadline = "deadline"
	SortProgress = "progress"
)

// ProjectInput is the request shape for CreateProject.
type ProjectInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	CreatorID   string         `json:"creator_id"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Priority    string         `json:"priority,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ProjectQuery filters and orders SearchProjects.
type ProjectQuery struct {
	Tag      string
	Owner    string
	Archived *bool
	Sort     string
}

// CreateProject stores a project with progress 0.
func (a *App) CreateProject(ctx context.Context, in ProjectInput) (domain.Project, error) {
	title := strings.TrimSpace(in.Title)
	creator := strings.TrimSpace(in.CreatorID)
	if title == "" {
		return domain.Project{}, invalidf("title required")
	}
	if creator == "" {
		return domain.Project{}, invalidf("creator_id required")
	}
	priority := domain.Priority(strings.TrimSpace(in.Priority))
	switch priority {
	case "":
		priority = domain.PriorityMedium
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent:
	default:
		return domain.Project{}, invalidf("unknown priority %q", in.Priority)
	}
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := a.now()
	project := domain.Project{
		ID:          util.NewID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CreatorID:   creator,
		Deadline:    utcTime(in.Deadline),
		Tags:        tags,
		Priority:    priority,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.CreateProject(ctx, project); err != nil {
		return domain.Project{}, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

// GetProject returns a project by ID.
func (a *App) GetProject(ctx context.Context, id string) (domain.Project, error) {
	project, ok, err := a.store.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("load project %s: %w", id, err)
	}
	if !ok {
		return domain.Project{}, ErrProjectNotFound
	}
	return project, nil
}

// SearchProjects filters by tag, owner and archived flag. Sort "deadline" is
// earliest first with undated projects last; "progress" is highest first.
// Any other sort keeps store order.
func (a *App) SearchProjects(ctx context.Context, q ProjectQuery) ([]domain.Project, error) {
	projects, err := a.store.ListProjects(ctx, store.ProjectFilter{
		Tag:       strings.TrimSpace(q.Tag),
		CreatorID: strings.TrimSpace(q.Owner),
		Archived:  q.Archived,
	})
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	switch q.Sort {
	case SortDeadline:
		slices.SortStableFunc(projects, func(x, y domain.Project) int {
			switch {
			case x.Deadline == nil && y.Deadline == nil:
				return 0
			case x.Deadline == nil:
				return 1
			case y.Deadline == nil:
				return -1
			}
			return x.Deadline.Compare(*y.Deadline)
		})
	case SortProgress:
		slices.SortStableFunc(projects, func(x, y domain.Project) int {
			switch {
			case x.Progress > y.Progress:
				return -1
			case x.Progress < y.Progress:
				return 1
			}
			return 0
		})
	}
	return projects, nil
}
