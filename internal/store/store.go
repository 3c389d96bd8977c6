// Package store implements the persisted-state adapter for Users,
// Permissions, the audit log, and system settings: an in-memory default
// and a Postgres-backed implementation, selected by config `database.type`.
package store

import (
	"context"
	"time"

	"github.com/nexuscore/nexus/internal/security"
)

// AuditEntry records one security-relevant action for later review.
type AuditEntry struct {
	ID        string         `db:"id" json:"id"`
	Action    string         `db:"action" json:"action"`
	ActorID   string         `db:"actor_id" json:"actor_id"`
	Target    string         `db:"target" json:"target,omitempty"`
	Metadata  map[string]any `db:"-" json:"metadata,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// SystemSetting is a single persisted key/value config override. The store
// saves and returns it as given: it does not redact IsSecret values or
// reject writes to IsEditable=false settings, and the REST config endpoints
// (GET/PUT /system/config/{path}) work on the live config tree only and do
// not read or write these rows.
type SystemSetting struct {
	Path       string    `db:"path" json:"path"`
	Value      string    `db:"value" json:"value"`
	IsSecret   bool      `db:"is_secret" json:"is_secret"`
	IsEditable bool      `db:"is_editable" json:"is_editable"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Store is the persisted-state adapter's full surface. Users/Permissions
// mirror internal/security's in-memory model so a Store can seed or
// checkpoint a security.Service; AuditLog and SystemSetting have no other
// home in the runtime.
type Store interface {
	SaveUser(ctx context.Context, u security.User) error
	GetUser(ctx context.Context, id string) (security.User, error)
	ListUsers(ctx context.Context) ([]security.User, error)
	DeleteUser(ctx context.Context, id string) error

	SavePermission(ctx context.Context, p security.Permission) error
	ListPermissions(ctx context.Context) ([]security.Permission, error)

	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)

	GetSetting(ctx context.Context, path string) (SystemSetting, bool, error)
	PutSetting(ctx context.Context, setting SystemSetting) error

	Close() error
}

// ErrNotFound is returned by Get* lookups that miss.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }
