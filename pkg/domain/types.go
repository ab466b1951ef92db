package domain

import "time"

type Permission string

const (
	PermCreate  Permission = "create"
	PermEdit    Permission = "edit"
	PermAssign  Permission = "assign"
	PermView    Permission = "view"
	PermDelete  Permission = "delete"
	PermApprove Permission = "approve"
	PermArchive Permission = "archive"
	PermExport  Permission = "export"
	PermChat    Permission = "chat"
)

// ValidPermission reports whether p is a known permission tag.
func ValidPermission(p Permission) bool {
	switch p {
	case PermCreate, PermEdit, PermAssign, PermView, PermDelete, PermApprove, PermArchive, PermExport, PermChat:
		return true
	}
	return false
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type PartStatus string

const (
	PartAssigned   PartStatus = "assigned"
	PartInProgress PartStatus = "in_progress"
	PartReview     PartStatus = "review"
	PartCompleted  PartStatus = "completed"
	PartBlocked    PartStatus = "blocked"
)

// PartStatuses lists every part status in display order.
var PartStatuses = []PartStatus{PartAssigned, PartInProgress, PartReview, PartCompleted, PartBlocked}

// ActiveStatuses are the statuses that count toward a user's capacity.
var ActiveStatuses = []PartStatus{PartAssigned, PartInProgress, PartReview}

// Valid reports whether s is one of the five part statuses.
func (s PartStatus) Valid() bool {
	for _, v := range PartStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether a part in this status counts toward workload.
func (s PartStatus) Active() bool {
	for _, v := range ActiveStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type NotificationType string

const (
	NotifyAssignment NotificationType = "assignment"
	NotifyChat       NotificationType = "chat"
	NotifyDeadline   NotificationType = "deadline"
	NotifyRoleChange NotificationType = "role_change"
	NotifyProgress   NotificationType = "progress"
	NotifySystem     NotificationType = "system"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotifyAssignment, NotifyChat, NotifyDeadline, NotifyRoleChange, NotifyProgress, NotifySystem:
		return true
	}
	return false
}

type InsightScope string

const (
	ScopeSystem  InsightScope = "system"
	ScopeProject InsightScope = "project"
	ScopeUser    InsightScope = "user"
)

// Role is keyed by its unique name.
type Role struct {
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	MaxCapacity *int         `json:"max_capacity"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Capacity  *int      `json:"capacity"`
	Locale    string    `json:"locale"`
	Theme     Theme     `json:"theme"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredCapacity returns the raw capacity field, treating unset as 0.
func (u User) StoredCapacity() int {
	if u.Capacity == nil {
		return 0
	}
	return *u.Capacity
}

type Project struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	CreatorID   string         `json:"creator_id"`
	Deadline    *time.Time     `json:"deadline"`
	Tags        []string       `json:"tags"`
	Progress    float64        `json:"progress"`
	Priority    Priority       `json:"priority"`
	Archived    bool           `json:"archived"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Part struct {
	ID             string           `json:"id"`
	ProjectID      string           `json:"project_id"`
	Title          string           `json:"title"`
	AssignedUserID string           `json:"assigned_user_id,omitempty"`
	Deadline       *time.Time       `json:"deadline"`
	Status         PartStatus       `json:"status"`
	Stage          string           `json:"stage"`
	Checklist      []map[string]any `json:"checklist"`
	Files          []map[string]any `json:"files"`
	Subtasks       []map[string]any `json:"subtasks"`
	TimeTracking   []map[string]any `json:"time_tracking"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Insight is an on-demand analytical summary. It is never persisted.
type Insight struct {
	Scope   InsightScope   `json:"scope"`
	ScopeID string         `json:"scope_id,omitempty"`
	Summary string         `json:"summary"`
	Details map[string]any `json:"details"`
}

type Workload struct {
	Capacity  int `json:"capacity"`
	Active    int `json:"active"`
	Available int `json:"available"`
}

type OverloadedUser struct {
	UserID   string `json:"user_id"`
	Active   int    `json:"active"`
	Capacity int    `json:"capacity"`
}

type SystemInsights struct {
	Summary     string           `json:"summary"`
	Overloaded  []OverloadedUser `json:"overloaded"`
	Approaching []string         `json:"approaching"`
}

// Insight wraps the result in the generic insight envelope.
func (s SystemInsights) Insight() Insight {
	return Insight{
		Scope:   ScopeSystem,
		Summary: s.Summary,
		Details: map[string]any{
			"overloaded":  s.Overloaded,
			"approaching": s.Approaching,
		},
	}
}

const (
	TrendBalanced   = "balanced"
	TrendOverloaded = "overloaded"
)

type UserInsights struct {
	Capacity int                `json:"capacity"`
	Active   int                `json:"active"`
	Trend    string             `json:"trend"`
	Status   map[PartStatus]int `json:"status"`
}

// Insight wraps the result in the generic insight envelope for userID.
func (u UserInsights) Insight(userID string) Insight {
	return Insight{
		Scope:   ScopeUser,
		ScopeID: userID,
		Summary: "Workload is " + u.Trend + ".",
		Details: map[string]any{
			"capacity": u.Capacity,
			"active":   u.Active,
			"status":   u.Status,
		},
	}
}
