package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsernameLengthBoundaries(t *testing.T) {
	cases := []struct {
		username string
		ok       bool
	}{
		{"ab", false},
		{"abc", true},
		{strings.Repeat("a", 32), true},
		{strings.Repeat("a", 33), false},
	}
	for _, c := range cases {
		require.Equal(t, c.ok, isValidUsername(c.username), "username=%q", c.username)
	}
}

func TestUsernameCharacterSet(t *testing.T) {
	require.True(t, isValidUsername("user.name_01-x"))
	require.False(t, isValidUsername("user name"))
	require.False(t, isValidUsername("user@name"))
}

func TestPasswordPolicyRules(t *testing.T) {
	policy := DefaultPasswordPolicy()

	require.Error(t, validatePassword("", policy))
	require.Error(t, validatePassword("Sh0rt!", policy))
	require.Error(t, validatePassword("alllower1!", policy))
	require.Error(t, validatePassword("ALLUPPER1!", policy))
	require.Error(t, validatePassword("NoDigitsHere!", policy))
	require.Error(t, validatePassword("NoSpecial11x", policy))
	require.NoError(t, validatePassword("G00d$tuff", policy))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.CreateUser(CreateUserInput{
		Username: "roundtrip",
		Email:    "roundtrip@example.com",
		Password: "R0und$Trip",
		Roles:    []Role{RoleUser},
	})
	require.NoError(t, err)

	u, ok := svc.GetUser(id)
	require.True(t, ok)
	require.NotContains(t, u.HashedPassword, "R0und$Trip")
}
