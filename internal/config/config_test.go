package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.toml"), false, envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultSessionSecret, cfg.Session.Secret)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, 30*time.Second, cfg.IdentityCacheTTL())
	assert.Equal(t, 4096, cfg.Votes.EngineCacheSize)
	assert.False(t, cfg.Development())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(`
port = "9000"
app_env = "development"

[supabase]
url = "https://project.supabase.co"
anon_key = "anon-from-file"

[r2]
bucket_name = "forum-media"

[upload]
max_bytes = 1024
`), 0o600)
	require.NoError(t, err)

	cfg, err := load(path, true, envOf(map[string]string{
		"SUPABASE_ANON_KEY":       "anon-from-env",
		"VOTE_ENGINE_TTL_SECONDS": "60",
		"R2_PUBLIC_BASE_URL":      "  ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Development())
	assert.Equal(t, "https://project.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "anon-from-env", cfg.Supabase.AnonKey)
	assert.Equal(t, "forum-media", cfg.R2.BucketName)
	assert.Empty(t, cfg.R2.PublicBaseURL)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.Equal(t, time.Minute, cfg.VoteEngineTTL())
}

func TestLoadRequiredFileMissing(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.toml"), true, envOf(nil))
	assert.Error(t, err)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = "), 0o600))

	_, err := load(path, false, envOf(nil))
	assert.Error(t, err)
}
