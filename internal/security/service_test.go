package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(Options{
		JWTSecret:                "test-secret",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
		SkipDefaultAdmin:         true,
	})
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateUser(CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r$ecret",
		Roles:    []Role{RoleUser},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	result, err := svc.Authenticate(ctx, "alice", "Sup3r$ecret")
	require.NoError(t, err)
	require.Equal(t, id, result.UserID)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	require.Error(t, err)
}

func TestDuplicateUsernameRejected(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateUser(CreateUserInput{Username: "bob", Email: "bob@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleUser}})
	require.NoError(t, err)

	_, err = svc.CreateUser(CreateUserInput{Username: "bob", Email: "other@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleUser}})
	require.Error(t, err)
}

func TestWeakPasswordRejected(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateUser(CreateUserInput{Username: "carol", Email: "carol@example.com", Password: "weak", Roles: []Role{RoleUser}})
	require.Error(t, err)
}

func TestTokenRevocationBlocksVerification(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(CreateUserInput{Username: "dana", Email: "dana@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleUser}})
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "dana", "Sup3r$ecret1")
	require.NoError(t, err)

	_, err = svc.VerifyToken(ctx, result.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, result.AccessToken))

	_, err = svc.VerifyToken(ctx, result.AccessToken)
	require.Error(t, err)
}

func TestRefreshAccessToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(CreateUserInput{Username: "erin", Email: "erin@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleUser}})
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "erin", "Sup3r$ecret1")
	require.NoError(t, err)

	refreshed, err := svc.RefreshAccessToken(ctx, result.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshAccessToken(ctx, result.AccessToken)
	require.Error(t, err)
}

func TestHasPermissionAndRole(t *testing.T) {
	svc := newTestService(t)
	id, err := svc.CreateUser(CreateUserInput{Username: "frank", Email: "frank@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleAdmin}})
	require.NoError(t, err)

	require.True(t, svc.HasPermission(id, "system", "manage"))
	require.True(t, svc.HasRole(id, RoleAdmin))
	require.False(t, svc.HasRole(id, RoleViewer))

	unknownID := "nonexistent"
	require.False(t, svc.HasPermission(unknownID, "system", "manage"))
}

func TestPasswordChangeRevokesActiveTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateUser(CreateUserInput{Username: "gina", Email: "gina@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleUser}})
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "gina", "Sup3r$ecret1")
	require.NoError(t, err)

	newPassword := "Ev3nStr0nger$"
	require.NoError(t, svc.UpdateUser(ctx, id, UpdateUserInput{Password: &newPassword}))

	_, err = svc.VerifyToken(ctx, result.AccessToken)
	require.Error(t, err)
}

func TestSecretRotationRevokesAllOutstandingTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(CreateUserInput{Username: "hank", Email: "hank@example.com", Password: "Sup3r$ecret1", Roles: []Role{RoleUser}})
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "hank", "Sup3r$ecret1")
	require.NoError(t, err)

	svc.OnConfigChanged(ctx, "security.jwt.secret", "test-secret")

	_, err = svc.VerifyToken(ctx, result.AccessToken)
	require.Error(t, err)
}

func TestDefaultAdminSeededUnlessSkipped(t *testing.T) {
	svc := New(Options{JWTSecret: "s"})
	ctx := context.Background()

	result, err := svc.Authenticate(ctx, "admin", "Admin123!")
	require.NoError(t, err)
	require.True(t, svc.HasRole(result.UserID, RoleAdmin))
}
