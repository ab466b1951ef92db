package store

import (
	"context"
	"sync"
	"time"

	"workboard/pkg/domain"
)

// MemoryStore keeps all collections in-process. Lists are returned in
// insertion order. Used for local runs and as the fake in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	roles         map[string]domain.Role
	roleOrder     []string
	users         map[string]domain.User
	userOrder     []string
	projects      map[string]domain.Project
	projectOrder  []string
	parts         map[string]domain.Part
	partOrder     []string
	notifications []domain.Notification
	now           func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:    make(map[string]domain.Role),
		users:    make(map[string]domain.User),
		projects: make(map[string]domain.Project),
		parts:    make(map[string]domain.Part),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateRole stores or replaces a role keyed by name.
func (m *MemoryStore) CreateRole(_ context.Context, r domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.roles[r.Name]; !exists {
		m.roleOrder = append(m.roleOrder, r.Name)
	}
	m.roles[r.Name] = r
	return nil
}

// GetRole looks up a role by name.
func (m *MemoryStore) GetRole(_ context.Context, name string) (domain.Role, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[name]
	return r, ok, nil
}

// ListRoles returns roles in insertion order.
func (m *MemoryStore) ListRoles(_ context.Context, limit int) ([]domain.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Role, 0, len(m.roleOrder))
	for _, name := range m.roleOrder {
		if limitReached(len(res), limit) {
			break
		}
		res = append(res, m.roles[name])
	}
	return res, nil
}

// CreateUser stores a user.
func (m *MemoryStore) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; !exists {
		m.userOrder = append(m.userOrder, u.ID)
	}
	m.users[u.ID] = u
	return nil
}

// GetUser returns a user by ID.
func (m *MemoryStore) GetUser(_ context.Context, id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns users in insertion order.
func (m *MemoryStore) ListUsers(_ context.Context, limit int) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if limitReached(len(res), limit) {
			break
		}
		res = append(res, m.users[id])
	}
	return res, nil
}

// CreateProject stores a project.
func (m *MemoryStore) CreateProject(_ context.Context, p domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.projects[p.ID]; !exists {
		m.projectOrder = append(m.projectOrder, p.ID)
	}
	m.projects[p.ID] = p
	return nil
}

// GetProject returns a project by ID.
func (m *MemoryStore) GetProject(_ context.Context, id string) (domain.Project, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	return p, ok, nil
}

// ListProjects returns matching projects in insertion order.
func (m *MemoryStore) ListProjects(_ context.Context, f ProjectFilter) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Project, 0)
	for _, id := range m.projectOrder {
		if limitReached(len(res), f.Limit) {
			break
		}
		if p := m.projects[id]; f.Match(p) {
			res = append(res, p)
		}
	}
	return res, nil
}

// SetProjectProgress updates progress and updated_at.
func (m *MemoryStore) SetProjectProgress(_ context.Context, id string, progress float64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return false, nil
	}
	p.Progress = progress
	p.UpdatedAt = at
	m.projects[id] = p
	return true, nil
}

// CreatePart stores a part.
func (m *MemoryStore) CreatePart(_ context.Context, p domain.Part) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.parts[p.ID]; !exists {
		m.partOrder = append(m.partOrder, p.ID)
	}
	m.parts[p.ID] = p
	return nil
}

// GetPart returns a part by ID.
func (m *MemoryStore) GetPart(_ context.Context, id string) (domain.Part, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.parts[id]
	return p, ok, nil
}

// ListParts returns matching parts in insertion order.
func (m *MemoryStore) ListParts(_ context.Context, f PartFilter) ([]domain.Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Part, 0)
	for _, id := range m.partOrder {
		if limitReached(len(res), f.Limit) {
			break
		}
		if p := m.parts[id]; f.Match(p) {
			res = append(res, p)
		}
	}
	return res, nil
}

// CountParts counts matching parts, ignoring Limit.
func (m *MemoryStore) CountParts(_ context.Context, f PartFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.parts {
		if f.Match(p) {
			n++
		}
	}
	return n, nil
}

// AssignPart sets the assignee, resets status to assigned and bumps updated_at.
func (m *MemoryStore) AssignPart(_ context.Context, id, userID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[id]
	if !ok {
		return false, nil
	}
	p.AssignedUserID = userID
	p.Status = domain.PartAssigned
	p.UpdatedAt = at
	m.parts[id] = p
	return true, nil
}

// SetPartStatus updates status and updated_at.
func (m *MemoryStore) SetPartStatus(_ context.Context, id string, status domain.PartStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parts[id]
	if !ok {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = at
	m.parts[id] = p
	return true, nil
}

// CreateNotification appends a notification, stamping CreatedAt when zero.
func (m *MemoryStore) CreateNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.notifications = append(m.notifications, n)
	return n, nil
}

// ListNotifications returns a user's notifications in insertion order.
func (m *MemoryStore) ListNotifications(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Notification, 0)
	for _, n := range m.notifications {
		if limitReached(len(res), limit) {
			break
		}
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	return res, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func limitReached(n, limit int) bool {
	return limit > 0 && n >= limit
}
