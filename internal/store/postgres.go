package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nexuscore/nexus/internal/apperr"
	"github.com/nexuscore/nexus/internal/security"
)

// PostgresConfig mirrors internal/config.DatabaseSchema.
type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	PoolSize int
}

func (c PostgresConfig) dsn() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.Host, c.Port, c.Name, c.User, c.Password)
}

// PostgresStore is the database.type=postgresql Store backend: sqlx.DB
// over lib/pq, schema-migrated with golang-migrate on construction.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection pool and applies pending migrations.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", cfg.dsn())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "connecting to postgres")
	}
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

type userRow struct {
	ID             string         `db:"id"`
	Username       string         `db:"username"`
	Email          string         `db:"email"`
	HashedPassword string         `db:"hashed_password"`
	Roles          string         `db:"roles"`
	Active         bool           `db:"active"`
	CreatedAt      time.Time      `db:"created_at"`
	LastLogin      sql.NullTime   `db:"last_login"`
	Metadata       []byte         `db:"metadata"`
}

func toUserRow(u security.User) (userRow, error) {
	meta, err := json.Marshal(u.Metadata)
	if err != nil {
		return userRow{}, apperr.Wrap(apperr.KindValidation, err, "marshaling user metadata")
	}
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	row := userRow{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Roles:          strings.Join(roles, ","),
		Active:         u.Active,
		CreatedAt:      u.CreatedAt,
		Metadata:       meta,
	}
	if u.LastLogin != nil {
		row.LastLogin = sql.NullTime{Time: *u.LastLogin, Valid: true}
	}
	return row, nil
}

func (r userRow) toUser() (security.User, error) {
	var roles []security.Role
	if r.Roles != "" {
		for _, part := range strings.Split(r.Roles, ",") {
			roles = append(roles, security.Role(part))
		}
	}
	var metadata map[string]any
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &metadata); err != nil {
			return security.User{}, apperr.Wrap(apperr.KindValidation, err, "unmarshaling user metadata")
		}
	}
	u := security.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		HashedPassword: r.HashedPassword,
		Roles:          roles,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		Metadata:       metadata,
	}
	if r.LastLogin.Valid {
		u.LastLogin = &r.LastLogin.Time
	}
	return u, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, u security.User) error {
	row, err := toUserRow(u)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, email, hashed_password, roles, active, created_at, last_login, metadata)
		VALUES (:id, :username, :email, :hashed_password, :roles, :active, :created_at, :last_login, :metadata)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			hashed_password = EXCLUDED.hashed_password,
			roles = EXCLUDED.roles,
			active = EXCLUDED.active,
			last_login = EXCLUDED.last_login,
			metadata = EXCLUDED.metadata
	`, row)
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "saving user")
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (security.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return security.User{}, ErrNotFound
	}
	if err != nil {
		return security.User{}, apperr.Wrap(apperr.KindDependency, err, "loading user")
	}
	return row.toUser()
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]security.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "listing users")
	}
	out := make([]security.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toUser()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "deleting user")
	}
	return nil
}

type permissionRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Resource    string `db:"resource"`
	Action      string `db:"action"`
	Roles       string `db:"roles"`
}

func (s *PostgresStore) SavePermission(ctx context.Context, p security.Permission) error {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	row := permissionRow{ID: p.ID, Name: p.Name, Description: p.Description, Resource: p.Resource, Action: p.Action, Roles: strings.Join(roles, ",")}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO permissions (id, name, description, resource, action, roles)
		VALUES (:id, :name, :description, :resource, :action, :roles)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			resource = EXCLUDED.resource, action = EXCLUDED.action, roles = EXCLUDED.roles
	`, row)
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "saving permission")
	}
	return nil
}

func (s *PostgresStore) ListPermissions(ctx context.Context) ([]security.Permission, error) {
	var rows []permissionRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM permissions ORDER BY id`); err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "listing permissions")
	}
	out := make([]security.Permission, 0, len(rows))
	for _, row := range rows {
		var roles []security.Role
		if row.Roles != "" {
			for _, part := range strings.Split(row.Roles, ",") {
				roles = append(roles, security.Role(part))
			}
		}
		out = append(out, security.Permission{
			ID: row.ID, Name: row.Name, Description: row.Description,
			Resource: row.Resource, Action: row.Action, Roles: roles,
		})
	}
	return out, nil
}

func (s *PostgresStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_log (id, action, actor_id, target, created_at)
		VALUES (:id, :action, :actor_id, :target, :created_at)
	`, entry)
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "appending audit entry")
	}
	return nil
}

func (s *PostgresStore) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []AuditEntry
	err := s.db.SelectContext(ctx, &entries, `SELECT id, action, actor_id, target, created_at FROM audit_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "listing audit entries")
	}
	return entries, nil
}

func (s *PostgresStore) GetSetting(ctx context.Context, path string) (SystemSetting, bool, error) {
	var setting SystemSetting
	err := s.db.GetContext(ctx, &setting, `SELECT * FROM system_settings WHERE path = $1`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return SystemSetting{}, false, nil
	}
	if err != nil {
		return SystemSetting{}, false, apperr.Wrap(apperr.KindDependency, err, "loading system setting")
	}
	return setting, true, nil
}

func (s *PostgresStore) PutSetting(ctx context.Context, setting SystemSetting) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO system_settings (path, value, is_secret, is_editable, updated_at)
		VALUES (:path, :value, :is_secret, :is_editable, now())
		ON CONFLICT (path) DO UPDATE SET
			value = EXCLUDED.value,
			is_secret = EXCLUDED.is_secret,
			is_editable = EXCLUDED.is_editable,
			updated_at = now()
	`, setting)
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "saving system setting")
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
