package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexuscore/nexus/internal/security"
)

func TestMemoryStoreUserRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := security.User{ID: "u1", Username: "alice", Email: "alice@example.com", Active: true}
	require.NoError(t, s.SaveUser(ctx, u))

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	listed, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	_, err = s.GetUser(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAuditListHonorsLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendAudit(ctx, AuditEntry{Action: "user.login", ActorID: "u1"}))
	}

	entries, err := s.ListAudit(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.NotEmpty(t, entries[0].ID)
	require.False(t, entries[0].CreatedAt.IsZero())
}

func TestMemoryStoreSettings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.GetSetting(ctx, "ui.theme")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.PutSetting(ctx, SystemSetting{Path: "ui.theme", Value: `"dark"`, IsEditable: true}))

	setting, ok, err := s.GetSetting(ctx, "ui.theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `"dark"`, setting.Value)
	require.False(t, setting.UpdatedAt.IsZero())
}

func TestSecurityAdapterBridgesAuditCalls(t *testing.T) {
	s := NewMemoryStore()
	adapter := SecurityAdapter{Store: s}
	ctx := context.Background()

	require.NoError(t, adapter.AppendAudit(ctx, "token.revoked", "u1", "jti-1"))

	entries, err := s.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "token.revoked", entries[0].Action)
	require.Equal(t, "u1", entries[0].ActorID)
}
