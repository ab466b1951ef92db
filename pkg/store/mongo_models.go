package store

import (
	"time"

	"workboard/pkg/domain"
)

// BSON documents stored by MongoStore. IDs are stored as string _id values.
type roleDoc struct {
	Name        string   `bson:"_id"`
	Permissions []string `bson:"permissions"`
	MaxCapacity *int     `bson:"max_capacity"`
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	Capacity  *int      `bson:"capacity"`
	Locale    string    `bson:"locale"`
	Theme     string    `bson:"theme"`
	IsActive  bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
}

type projectDoc struct {
	ID          string         `bson:"_id"`
	Title       string         `bson:"title"`
	Description string         `bson:"description,omitempty"`
	CreatorID   string         `bson:"creator_id"`
	Deadline    *time.Time     `bson:"deadline"`
	Tags        []string       `bson:"tags"`
	Progress    float64        `bson:"progress"`
	Priority    string         `bson:"priority"`
	Archived    bool           `bson:"archived"`
	Metadata    map[string]any `bson:"metadata"`
	CreatedAt   time.Time      `bson:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at"`
}

type partDoc struct {
	ID             string           `bson:"_id"`
	ProjectID      string           `bson:"project_id"`
	Title          string           `bson:"title"`
	AssignedUserID string           `bson:"assigned_user_id,omitempty"`
	Deadline       *time.Time       `bson:"deadline"`
	Status         string           `bson:"status"`
	Stage          string           `bson:"stage"`
	Checklist      []map[string]any `bson:"checklist"`
	Files          []map[string]any `bson:"files"`
	Subtasks       []map[string]any `bson:"subtasks"`
	TimeTracking   []map[string]any `bson:"time_tracking"`
	CreatedAt      time.Time        `bson:"created_at"`
	UpdatedAt      time.Time        `bson:"updated_at"`
}

type notificationDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Type      string    `bson:"type"`
	Title     string    `bson:"title"`
	Body      string    `bson:"body"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"created_at"`
}

func roleToDoc(r domain.Role) roleDoc {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, string(p))
	}
	return roleDoc{Name: r.Name, Permissions: perms, MaxCapacity: r.MaxCapacity}
}

func (d roleDoc) toDomain() domain.Role {
	perms := make([]domain.Permission, 0, len(d.Permissions))
	for _, p := range d.Permissions {
		perms = append(perms, domain.Permission(p))
	}
	return domain.Role{Name: d.Name, Permissions: perms, MaxCapacity: d.MaxCapacity}
}

func userToDoc(u domain.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Capacity:  u.Capacity,
		Locale:    u.Locale,
		Theme:     string(u.Theme),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Role:      d.Role,
		Capacity:  d.Capacity,
		Locale:    d.Locale,
		Theme:     domain.Theme(d.Theme),
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
	}
}

func projectToDoc(p domain.Project) projectDoc {
	return projectDoc{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		Deadline:    p.Deadline,
		Tags:        p.Tags,
		Progress:    p.Progress,
		Priority:    string(p.Priority),
		Archived:    p.Archived,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d projectDoc) toDomain() domain.Project {
	return domain.Project{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		CreatorID:   d.CreatorID,
		Deadline:    utcPtr(d.Deadline),
		Tags:        d.Tags,
		Progress:    d.Progress,
		Priority:    domain.Priority(d.Priority),
		Archived:    d.Archived,
		Metadata:    d.Metadata,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func partToDoc(p domain.Part) partDoc {
	return partDoc{
		ID:             p.ID,
		ProjectID:      p.ProjectID,
		Title:          p.Title,
		AssignedUserID: p.AssignedUserID,
		Deadline:       p.Deadline,
		Status:         string(p.Status),
		Stage:          p.Stage,
		Checklist:      p.Checklist,
		Files:          p.Files,
		Subtasks:       p.Subtasks,
		TimeTracking:   p.TimeTracking,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d partDoc) toDomain() domain.Part {
	return domain.Part{
		ID:             d.ID,
		ProjectID:      d.ProjectID,
		Title:          d.Title,
		AssignedUserID: d.AssignedUserID,
		Deadline:       utcPtr(d.Deadline),
		Status:         domain.PartStatus(d.Status),
		Stage:          d.Stage,
		Checklist:      d.Checklist,
		Files:          d.Files,
		Subtasks:       d.Subtasks,
		TimeTracking:   d.TimeTracking,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func notificationToDoc(n domain.Notification) notificationDoc {
	return notificationDoc{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (d notificationDoc) toDomain() domain.Notification {
	return domain.Notification{
		ID:        d.ID,
		UserID:    d.UserID,
		Type:      domain.NotificationType(d.Type),
		Title:     d.Title,
		Body:      d.Body,
		Read:      d.Read,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// BSON datetimes decode in local time.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
