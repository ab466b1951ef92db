package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"workboard/pkg/domain"
)

const migrateLockID int64 = 58120443

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&RoleModel{}, &UserModel{}, &ProjectModel{}, &PartModel{}, &NotificationModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Ping checks the underlying connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateRole inserts a role, replacing permissions and capacity on name conflict.
func (s *GormStore) CreateRole(ctx context.Context, r domain.Role) error {
	model := roleToModel(r)
	model.CreatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"permissions", "max_capacity"}),
	}).Create(&model).Error
}

// GetRole looks up a role by name.
func (s *GormStore) GetRole(ctx context.Context, name string) (domain.Role, bool, error) {
	var model RoleModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Role{}, false, nil
		}
		return domain.Role{}, false, err
	}
	return roleFromModel(model), true, nil
}

// ListRoles returns roles ordered by creation time.
func (s *GormStore) ListRoles(ctx context.Context, limit int) ([]domain.Role, error) {
	var models []RoleModel
	if err := withLimit(s.db.WithContext(ctx).Order("created_at ASC"), limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Role, 0, len(models))
	for _, m := range models {
		res = append(res, roleFromModel(m))
	}
	return res, nil
}

// CreateUser inserts a user.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) error {
	model := userToModel(u)
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetUser returns a user by ID.
func (s *GormStore) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns users ordered by created_at.
func (s *GormStore) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	var models []UserModel
	if err := withLimit(s.db.WithContext(ctx).Order("created_at ASC"), limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// CreateProject inserts a project.
func (s *GormStore) CreateProject(ctx context.Context, p domain.Project) error {
	model, err := projectToModel(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetProject returns a project by ID.
func (s *GormStore) GetProject(ctx context.Context, id string) (domain.Project, bool, error) {
	var model ProjectModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	p, err := projectFromModel(model)
	if err != nil {
		return domain.Project{}, false, err
	}
	return p, true, nil
}

// ListProjects returns projects matching f ordered by created_at.
func (s *GormStore) ListProjects(ctx context.Context, f ProjectFilter) ([]domain.Project, error) {
	tx := s.db.WithContext(ctx).Order("created_at ASC")
	if f.CreatorID != "" {
		tx = tx.Where("creator_id = ?", f.CreatorID)
	}
	if f.Archived != nil {
		tx = tx.Where("archived = ?", *f.Archived)
	}
	if f.Tag != "" {
		needle, err := json.Marshal([]string{f.Tag})
		if err != nil {
			return nil, err
		}
		tx = tx.Where("tags @> ?::jsonb", string(needle))
	}
	var models []ProjectModel
	if err := withLimit(tx, f.Limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(models))
	for _, m := range models {
		p, err := projectFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// SetProjectProgress writes progress and updated_at.
func (s *GormStore) SetProjectProgress(ctx context.Context, id string, progress float64, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&ProjectModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"progress":   progress,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreatePart inserts a part.
func (s *GormStore) CreatePart(ctx context.Context, p domain.Part) error {
	model, err := partToModel(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetPart returns a part by ID.
func (s *GormStore) GetPart(ctx context.Context, id string) (domain.Part, bool, error) {
	var model PartModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Part{}, false, nil
		}
		return domain.Part{}, false, err
	}
	p, err := partFromModel(model)
	if err != nil {
		return domain.Part{}, false, err
	}
	return p, true, nil
}

// ListParts returns parts matching f ordered by created_at.
func (s *GormStore) ListParts(ctx context.Context, f PartFilter) ([]domain.Part, error) {
	var models []PartModel
	tx := partQuery(s.db.WithContext(ctx).Order("created_at ASC"), f)
	if err := withLimit(tx, f.Limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Part, 0, len(models))
	for _, m := range models {
		p, err := partFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// CountParts counts parts matching f.
func (s *GormStore) CountParts(ctx context.Context, f PartFilter) (int, error) {
	var count int64
	if err := partQuery(s.db.WithContext(ctx).Model(&PartModel{}), f).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// AssignPart sets assignee and resets status to assigned.
func (s *GormStore) AssignPart(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	return s.updatePart(ctx, id, map[string]any{
		"assigned_user_id": userID,
		"status":           string(domain.PartAssigned),
		"updated_at":       at,
	})
}

// SetPartStatus updates status and updated_at.
func (s *GormStore) SetPartStatus(ctx context.Context, id string, status domain.PartStatus, at time.Time) (bool, error) {
	return s.updatePart(ctx, id, map[string]any{
		"status":     string(status),
		"updated_at": at,
	})
}

func (s *GormStore) updatePart(ctx context.Context, id string, fields map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).Model(&PartModel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateNotification inserts a notification, stamping CreatedAt when zero.
func (s *GormStore) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	model := notificationToModel(n)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// ListNotifications returns a user's notifications ordered by created_at.
func (s *GormStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	var models []NotificationModel
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC")
	if err := withLimit(tx, limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		res = append(res, notificationFromModel(m))
	}
	return res, nil
}

func partQuery(tx *gorm.DB, f PartFilter) *gorm.DB {
	if f.ProjectID != "" {
		tx = tx.Where("project_id = ?", f.ProjectID)
	}
	if f.AssignedUserID != "" {
		tx = tx.Where("assigned_user_id = ?", f.AssignedUserID)
	}
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", statusStrings(f.Statuses))
	}
	return tx
}

func withLimit(tx *gorm.DB, limit int) *gorm.DB {
	if limit > 0 {
		return tx.Limit(limit)
	}
	return tx
}

func roleToModel(r domain.Role) RoleModel {
	perms, _ := json.Marshal(r.Permissions)
	return RoleModel{
		Name:        r.Name,
		Permissions: datatypes.JSON(perms),
		MaxCapacity: r.MaxCapacity,
	}
}

func roleFromModel(m RoleModel) domain.Role {
	role := domain.Role{Name: m.Name, MaxCapacity: m.MaxCapacity}
	_ = decodeJSON(m.Permissions, &role.Permissions)
	return role
}

func userToModel(u domain.User) UserModel {
	return UserModel{
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

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		Capacity:  m.Capacity,
		Locale:    m.Locale,
		Theme:     domain.Theme(m.Theme),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

func projectToModel(p domain.Project) (ProjectModel, error) {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return ProjectModel{}, fmt.Errorf("encode tags: %w", err)
	}
	return ProjectModel{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		Deadline:    p.Deadline,
		Tags:        datatypes.JSON(tags),
		Progress:    p.Progress,
		Priority:    string(p.Priority),
		Archived:    p.Archived,
		Metadata:    datatypes.JSONMap(p.Metadata),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func projectFromModel(m ProjectModel) (domain.Project, error) {
	p := domain.Project{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		CreatorID:   m.CreatorID,
		Deadline:    m.Deadline,
		Progress:    m.Progress,
		Priority:    domain.Priority(m.Priority),
		Archived:    m.Archived,
		Metadata:    map[string]any(m.Metadata),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if err := decodeJSON(m.Tags, &p.Tags); err != nil {
		return domain.Project{}, fmt.Errorf("decode tags: %w", err)
	}
	return p, nil
}

func partToModel(p domain.Part) (PartModel, error) {
	m := PartModel{
		ID:             p.ID,
		ProjectID:      p.ProjectID,
		Title:          p.Title,
		AssignedUserID: p.AssignedUserID,
		Deadline:       p.Deadline,
		Status:         string(p.Status),
		Stage:          p.Stage,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	fields := []struct {
		dst *datatypes.JSON
		src []map[string]any
	}{
		{&m.Checklist, p.Checklist},
		{&m.Files, p.Files},
		{&m.Subtasks, p.Subtasks},
		{&m.TimeTracking, p.TimeTracking},
	}
	for _, f := range fields {
		raw, err := json.Marshal(f.src)
		if err != nil {
			return PartModel{}, fmt.Errorf("encode part fields: %w", err)
		}
		*f.dst = datatypes.JSON(raw)
	}
	return m, nil
}

func partFromModel(m PartModel) (domain.Part, error) {
	p := domain.Part{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		Title:          m.Title,
		AssignedUserID: m.AssignedUserID,
		Deadline:       m.Deadline,
		Status:         domain.PartStatus(m.Status),
		Stage:          m.Stage,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, f := range []struct {
		src datatypes.JSON
		dst *[]map[string]any
	}{
		{m.Checklist, &p.Checklist},
		{m.Files, &p.Files},
		{m.Subtasks, &p.Subtasks},
		{m.TimeTracking, &p.TimeTracking},
	} {
		if err := decodeJSON(f.src, f.dst); err != nil {
			return domain.Part{}, fmt.Errorf("decode part fields: %w", err)
		}
	}
	return p, nil
}

func notificationToModel(n domain.Notification) NotificationModel {
	return NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func notificationFromModel(m NotificationModel) domain.Notification {
	return domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      domain.NotificationType(m.Type),
		Title:     m.Title,
		Body:      m.Body,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func decodeJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
