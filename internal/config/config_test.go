package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-desk-backend/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "publishable")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	for _, key := range []string{"DATABASE_URL", "PORT", "PROFILE_CACHE_TTL", "REQUIRE_EMAIL_VERIFIED", "SUPABASE_AVATAR_BUCKET", "RABBITMQ_EXCHANGE"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "avatars", cfg.SupabaseAvatarBucket)
	assert.Equal(t, 5*time.Minute, cfg.ProfileCacheTTL)
	assert.Equal(t, "orders_changes", cfg.RabbitMQExchange)
	assert.True(t, cfg.RequireEmailVerified)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_MissingSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("SUPABASE_JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PROFILE_CACHE_TTL", "30s")
	t.Setenv("REQUIRE_EMAIL_VERIFIED", "false")
	t.Setenv("PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ProfileCacheTTL)
	assert.False(t, cfg.RequireEmailVerified)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_InvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("PROFILE_CACHE_TTL", "soon")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("PROFILE_CACHE_TTL", "")
	t.Setenv("REQUIRE_EMAIL_VERIFIED", "maybe")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
supabase_url: https://file.supabase.co
supabase_publishable_key: file-key
supabase_jwt_secret: file-secret
database_url: postgres://localhost/orders
profile_cache_ttl: 1m
port: "7070"
`), 0o600))

	setRequired(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "")
	t.Setenv("SUPABASE_JWT_SECRET", "")
	t.Setenv("PORT", "6060")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://file.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "postgres://localhost/orders", cfg.DatabaseURL)
	assert.Equal(t, time.Minute, cfg.ProfileCacheTTL)
	// Environment wins over the file.
	assert.Equal(t, "6060", cfg.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}
