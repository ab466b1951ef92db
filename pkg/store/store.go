package store

import (
	"context"
	"time"

	"workboard/pkg/domain"
)

// Store defines persistence operations for roles, users, projects, parts and
// notifications. Filters are exact-match or set-membership only; anything
// richer is evaluated by callers after fetch.
type Store interface {
	// roles
	CreateRole(ctx context.Context, r domain.Role) error
	GetRole(ctx context.Context, name string) (domain.Role, bool, error)
	ListRoles(ctx context.Context, limit int) ([]domain.Role, error)

	// users
	CreateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, bool, error)
	ListUsers(ctx context.Context, limit int) ([]domain.User, error)

	// projects
	CreateProject(ctx context.Context, p domain.Project) error
	GetProject(ctx context.Context, id string) (domain.Project, bool, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]domain.Project, error)
	SetProjectProgress(ctx context.Context, id string, progress float64, at time.Time) (bool, error)

	// parts
	CreatePart(ctx context.Context, p domain.Part) error
	GetPart(ctx context.Context, id string) (domain.Part, bool, error)
	ListParts(ctx context.Context, f PartFilter) ([]domain.Part, error)
	CountParts(ctx context.Context, f PartFilter) (int, error)
	AssignPart(ctx context.Context, id, userID string, at time.Time) (bool, error)
	SetPartStatus(ctx context.Context, id string, status domain.PartStatus, at time.Time) (bool, error)

	// notifications
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
}

// Pinger is an optional capability used by health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is an optional capability for stores holding connections.
type Closer interface {
	Close(ctx context.Context) error
}

// PartFilter selects parts. Zero fields are ignored; Limit <= 0 means no limit.
type PartFilter struct {
	ProjectID      string
	AssignedUserID string
	Statuses       []domain.PartStatus
	Limit          int
}

// Match reports whether p satisfies the filter.
func (f PartFilter) Match(p domain.Part) bool {
	if f.ProjectID != "" && p.ProjectID != f.ProjectID {
		return false
	}
	if f.AssignedUserID != "" && p.AssignedUserID != f.AssignedUserID {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if p.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

// ProjectFilter selects projects. Tag matches projects whose tag set contains it.
type ProjectFilter struct {
	Tag       string
	CreatorID string
	Archived  *bool
	Limit     int
}

// Match reports whether p satisfies the filter.
func (f ProjectFilter) Match(p domain.Project) bool {
	if f.CreatorID != "" && p.CreatorID != f.CreatorID {
		return false
	}
	if f.Archived != nil && p.Archived != *f.Archived {
		return false
	}
	if f.Tag != "" {
		for _, t := range p.Tags {
			if t == f.Tag {
				return true
			}
		}
		return false
	}
	return true
}

func statusStrings(statuses []domain.PartStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
