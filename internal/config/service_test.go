package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nexuscore/nexus/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	svc, err := Load(Options{FilePath: filepath.Join(t.TempDir(), "nonexistent.yaml"), Environ: []string{}})
	require.NoError(t, err)
	v, ok := svc.Get("app.environment")
	require.True(t, ok)
	require.Equal(t, "development", v)
}

func TestLoadDefaultsWhenFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	svc, err := Load(Options{FilePath: path, Environ: []string{}})
	require.NoError(t, err)
	v, _ := svc.Get("api.port")
	require.Equal(t, float64(8000), toFloat(v))
}

func TestUnsupportedExtensionFailsInitialization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("app.name=x"), 0o644))

	_, err := Load(Options{FilePath: path, Environ: []string{}})
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindConfiguration))
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: Initial\nsecurity:\n  jwt:\n    secret: s\n"), 0o644))

	svc, err := Load(Options{
		FilePath: path,
		Environ:  []string{"NEXUS_APP_NAME=Env"},
	})
	require.NoError(t, err)

	v, ok := svc.Get("app.name")
	require.True(t, ok)
	require.Equal(t, "Env", v)
}

func TestSetValidatesWholeTreeAndRollsBackOnFailure(t *testing.T) {
	svc, err := Load(Options{Environ: []string{"NEXUS_SECURITY_JWT_SECRET=s"}})
	require.NoError(t, err)

	require.NoError(t, svc.Set("app.name", "renamed"))
	v, _ := svc.Get("app.name")
	require.Equal(t, "renamed", v)

	before, _ := svc.Get("app.environment")
	err = svc.Set("app.environment", "not-a-real-environment")
	require.Error(t, err)
	after, _ := svc.Get("app.environment")
	require.Equal(t, before, after)
}

func TestAPIEnabledRequiresJWTSecret(t *testing.T) {
	svc, err := Load(Options{Environ: []string{}})
	require.NoError(t, err)

	err = svc.Set("api.enabled", true)
	require.Error(t, err)
	require.True(t, apperr.HasKind(err, apperr.KindValidation))
	v, _ := svc.Get("api.enabled")
	require.Equal(t, false, v)

	require.NoError(t, svc.Set("security.jwt.secret", "rotated"))
	require.NoError(t, svc.Set("api.enabled", true))
}

func TestListenerRegisterUnregisterIdempotence(t *testing.T) {
	svc, err := Load(Options{Environ: []string{"NEXUS_SECURITY_JWT_SECRET=s"}})
	require.NoError(t, err)

	calls := 0
	unregister := svc.RegisterListener("sub-1", "app", func(key string, old, new any) {
		calls++
	})
	unregister()
	require.NoError(t, svc.Set("app.name", "x"))
	require.Equal(t, 0, calls)

	svc.RegisterListener("sub-1", "app", func(key string, old, new any) { calls++ })
	svc.RegisterListener("sub-1", "app", func(key string, old, new any) { calls++ })
	require.NoError(t, svc.Set("app.name", "y"))
	require.Equal(t, 1, calls)
}

func TestListenerFiresOnPrefixMatch(t *testing.T) {
	svc, err := Load(Options{Environ: []string{"NEXUS_SECURITY_JWT_SECRET=s"}})
	require.NoError(t, err)

	var gotKey string
	svc.RegisterListener("sub-1", "app", func(key string, old, new any) { gotKey = key })
	require.NoError(t, svc.Set("app.name", "z"))
	require.Equal(t, "app.name", gotKey)
}

func TestEnvValueCoercion(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"YES", true},
		{"1", true},
		{"on", true},
		{"false", false},
		{"No", false},
		{"0", false},
		{"OFF", false},
		{"42", 42},
		{"-7", -7},
		{"3.14", 3.14},
		{"hello", "hello"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, coerce(c.raw), "raw=%q", c.raw)
	}
}

func TestEnvDoubleUnderscoreDelimiter(t *testing.T) {
	svc, err := Load(Options{Environ: []string{"NEXUS_SECURITY__JWT__ACCESS_TOKEN_EXPIRE_MINUTES=45"}})
	require.NoError(t, err)

	v, ok := svc.Get("security.jwt.access_token_expire_minutes")
	require.True(t, ok)
	require.Equal(t, float64(45), toFloat(v))
}

func TestDotEnvFileOverlaysBeneathRealEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEXUS_APP_NAME=FromDotEnv\n"), 0o644))

	t.Cleanup(func() { _ = os.Unsetenv("NEXUS_APP_NAME") })
	svc, err := Load(Options{EnvFiles: []string{path}})
	require.NoError(t, err)

	v, ok := svc.Get("app.name")
	require.True(t, ok)
	require.Equal(t, "FromDotEnv", v)

	// An exported variable beats the .env file: godotenv never overrides
	// what is already in the environment.
	t.Setenv("NEXUS_APP_NAME", "RealEnv")
	svc, err = Load(Options{EnvFiles: []string{path}})
	require.NoError(t, err)

	v, _ = svc.Get("app.name")
	require.Equal(t, "RealEnv", v)
}

func TestEnvAmbiguousSingleUnderscoreSkippedForUnknownPath(t *testing.T) {
	svc, err := Load(Options{Environ: []string{"NEXUS_LOGGING_DATABASE_LEVEL=debug"}})
	require.NoError(t, err)

	_, ok := svc.Get("logging.database.level")
	require.False(t, ok, "naive split must not invent paths the schema does not define")
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return -1
	}
}
