package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 4, cfg.MaxRounds)
}

func TestFromEnv(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"BRIDGE_ADDR":            ":9000",
		"BRIDGE_TOKEN_SECRET":    "s3cret",
		"BRIDGE_TOKEN_TTL":       "30m",
		"BRIDGE_MAX_ROUNDS":      "8",
		"BRIDGE_LOG_LEVEL":       "DEBUG",
		"BRIDGE_LOG_DEV":         "true",
		"BRIDGE_ALLOWED_ORIGINS": "http://a.test, http://b.test ,",
		"BRIDGE_WEB_DIST":        "/srv/web",
	}))
	require.NoError(t, err)
	require.Equal(t, Config{
		Addr:           ":9000",
		TokenSecret:    "s3cret",
		TokenTTL:       30 * time.Minute,
		MaxRounds:      8,
		LogLevel:       "debug",
		LogDev:         true,
		AllowedOrigins: []string{"http://a.test", "http://b.test"},
		WebDist:        "/srv/web",
	}, cfg)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	for k, v := range map[string]string{
		"BRIDGE_TOKEN_TTL":  "soon",
		"BRIDGE_MAX_ROUNDS": "-1",
		"BRIDGE_LOG_DEV":    "maybe",
	} {
		_, err := FromEnv(env(map[string]string{k: v}))
		require.Error(t, err, k)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BRIDGE_MAX_ROUNDS=2\nBRIDGE_TOKEN_SECRET=from-file\n"), 0o600))
	t.Setenv("BRIDGE_TOKEN_SECRET", "from-env")
	t.Setenv("BRIDGE_MAX_ROUNDS", "")
	os.Unsetenv("BRIDGE_MAX_ROUNDS")

	cfg, err := Load(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.MaxRounds)
	require.Equal(t, "from-env", cfg.TokenSecret)
}
