package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type RoleModel struct {
	Name        string         `gorm:"primaryKey"`
	Permissions datatypes.JSON `gorm:"type:jsonb"`
	MaxCapacity *int
	CreatedAt   time.Time `gorm:"not null;index"`
}

type UserModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null;index"`
	Role      string `gorm:"not null;index"`
	Capacity  *int
	Locale    string    `gorm:"not null"`
	Theme     string    `gorm:"not null"`
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type ProjectModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	CreatorID   string `gorm:"not null;index"`
	Deadline    *time.Time
	Tags        datatypes.JSON    `gorm:"type:jsonb"`
	Progress    float64           `gorm:"not null"`
	Priority    string            `gorm:"not null"`
	Archived    bool              `gorm:"not null;index"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time         `gorm:"not null;index"`
	UpdatedAt   time.Time         `gorm:"not null"`
}

type PartModel struct {
	ID             string `gorm:"primaryKey"`
	ProjectID      string `gorm:"not null;index"`
	Title          string `gorm:"not null"`
	AssignedUserID string `gorm:"index"`
	Deadline       *time.Time
	Status         string         `gorm:"not null;index"`
	Stage          string         `gorm:"not null"`
	Checklist      datatypes.JSON `gorm:"type:jsonb"`
	Files          datatypes.JSON `gorm:"type:jsonb"`
	Subtasks       datatypes.JSON `gorm:"type:jsonb"`
	TimeTracking   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null;index"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

type NotificationModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Type      string    `gorm:"not null"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"not null"`
	Read      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
