package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/nexuscore/nexus/internal/security"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PostgresStore{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestPostgresStoreSaveAndGetUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(1, 1))

	user := security.User{
		ID:             "u1",
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "hash",
		Roles:          []security.Role{security.RoleAdmin},
		Active:         true,
		CreatedAt:      time.Now(),
		Metadata:       map[string]any{"k": "v"},
	}
	require.NoError(t, store.SaveUser(context.Background(), user))

	rows := sqlmock.NewRows([]string{"id", "username", "email", "hashed_password", "roles", "active", "created_at", "last_login", "metadata"}).
		AddRow("u1", "alice", "alice@example.com", "hash", "admin", true, user.CreatedAt, nil, []byte(`{"k":"v"}`))
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).WithArgs("u1").WillReturnRows(rows)

	got, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, []security.Role{security.RoleAdmin}, got.Roles)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreAppendAndListAudit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.AppendAudit(context.Background(), AuditEntry{
		ID: "a1", Action: "user.created", ActorID: "u1", Target: "alice", CreatedAt: time.Now(),
	}))

	rows := sqlmock.NewRows([]string{"id", "action", "actor_id", "target", "created_at"}).
		AddRow("a1", "user.created", "u1", "alice", time.Now())
	mock.ExpectQuery(`SELECT id, action, actor_id, target, created_at FROM audit_log`).WillReturnRows(rows)

	entries, err := store.ListAudit(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "user.created", entries[0].Action)

	require.NoError(t, mock.ExpectationsWereMet())
}
