package app

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"workboard/internal/util"
	"workboard/pkg/domain"
)

const (
	maxRoleList = 100
	maxUserList = 200
)

// RoleInput is the request shape for CreateRole.
type RoleInput struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	MaxCapacity *int     `json:"max_capacity"`
}

// UserInput is the request shape for CreateUser. Unset fields take defaults.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Capacity *int   `json:"capacity"`
	Locale   string `json:"locale"`
	Theme    string `json:"theme"`
	IsActive *bool  `json:"is_active"`
}

// CreateRole stores a role keyed by name. Creating an existing name replaces it.
func (a *App) CreateRole(ctx context.Context, in RoleInput) (domain.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Role{}, invalidf("role name required")
	}
	if in.MaxCapacity != nil && *in.MaxCapacity < 0 {
		return domain.Role{}, invalidf("max_capacity must be non-negative")
	}
	perms := make([]domain.Permission, 0, len(in.Permissions))
	for _, raw := range in.Permissions {
		p := domain.Permission(strings.TrimSpace(raw))
		if !domain.ValidPermission(p) {
			return domain.Role{}, invalidf("unknown permission %q", raw)
		}
		perms = append(perms, p)
	}
	role := domain.Role{Name: name, Permissions: perms, MaxCapacity: in.MaxCapacity}
	if err := a.store.CreateRole(ctx, role); err != nil {
		return domain.Role{}, fmt.Errorf("save role: %w", err)
	}
	return role, nil
}

// ListRoles returns up to 100 roles.
func (a *App) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := a.store.ListRoles(ctx, maxRoleList)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// CreateUser stores a user. A missing capacity is copied from the role's max
// capacity, or 0 when the role is unknown or has none. The role need not exist.
func (a *App) CreateUser(ctx context.Context, in UserInput) (domain.User, error) {
	user := domain.User{
		ID:        util.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Role:      strings.TrimSpace(in.Role),
		Locale:    strings.TrimSpace(in.Locale),
		Theme:     domain.Theme(strings.TrimSpace(in.Theme)),
		IsActive:  true,
		CreatedAt: a.now(),
	}
	switch {
	case user.Name == "":
		return domain.User{}, invalidf("name required")
	case user.Email == "":
		return domain.User{}, invalidf("email required")
	case user.Role == "":
		return domain.User{}, invalidf("role required")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return domain.User{}, invalidf("email %q is not an address", user.Email)
	}
	if user.Locale == "" {
		user.Locale = "en"
	}
	switch user.Theme {
	case "":
		user.Theme = domain.ThemeSystem
	case domain.ThemeLight, domain.ThemeDark, domain.ThemeSystem:
	default:
		return domain.User{}, invalidf("unknown theme %q", in.Theme)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	capacity := 0
	if in.Capacity != nil {
		if *in.Capacity < 0 {
			return domain.User{}, invalidf("capacity must be non-negative")
		}
		capacity = *in.Capacity
	} else {
		role, ok, err := a.store.GetRole(ctx, user.Role)
		if err != nil {
			return domain.User{}, fmt.Errorf("load role %s: %w", user.Role, err)
		}
		if ok && role.MaxCapacity != nil {
			capacity = *role.MaxCapacity
		}
	}
	user.Capacity = &capacity

	if err := a.store.CreateUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID.
func (a *App) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, ok, err := a.store.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user %s: %w", id, err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns up to 200 users.
func (a *App) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := a.store.ListUsers(ctx, maxUserList)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
