package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexuscore/nexus/internal/security"
)

// MemoryStore is the default, dependency-free Store backend. It satisfies
// every environment that doesn't set database.type to a real engine.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]security.User
	permissions map[string]security.Permission
	audit       []AuditEntry
	settings    map[string]SystemSetting
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]security.User),
		permissions: make(map[string]security.Permission),
		settings:    make(map[string]SystemSetting),
	}
}

func (s *MemoryStore) SaveUser(ctx context.Context, u security.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (security.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return security.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]security.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]security.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) SavePermission(ctx context.Context, p security.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[p.ID] = p
	return nil
}

func (s *MemoryStore) ListPermissions(ctx context.Context) ([]security.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]security.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.audit = append(s.audit, entry)
	return nil
}

func (s *MemoryStore) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.audit)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]AuditEntry, n)
	copy(out, s.audit[len(s.audit)-n:])
	return out, nil
}

func (s *MemoryStore) GetSetting(ctx context.Context, path string) (SystemSetting, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setting, ok := s.settings[path]
	return setting, ok, nil
}

func (s *MemoryStore) PutSetting(ctx context.Context, setting SystemSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting.UpdatedAt = time.Now()
	s.settings[setting.Path] = setting
	return nil
}

func (s *MemoryStore) Close() error { return nil }
