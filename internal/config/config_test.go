package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "./genealogy.db", cfg.DatabasePath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.False(t, cfg.S3PathStyle)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GENEALOGY_PORT", "9090")
	t.Setenv("GENEALOGY_DATABASE_TYPE", "postgres")
	t.Setenv("GENEALOGY_DATABASE_URL", "postgres://localhost/family")
	t.Setenv("GENEALOGY_TOKEN_TTL", "2h")
	t.Setenv("GENEALOGY_RATE_LIMIT", "5")
	t.Setenv("GENEALOGY_S3_BUCKET", "archives")
	t.Setenv("GENEALOGY_S3_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, "postgres://localhost/family", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, "archives", cfg.S3Bucket)
	assert.True(t, cfg.S3PathStyle)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GENEALOGY_TOKEN_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{TokenSecret: secret, RateLimit: 10}, ""},
		{"missing secret", Config{RateLimit: 10}, "GENEALOGY_TOKEN_SECRET is required"},
		{"short secret", Config{TokenSecret: "short", RateLimit: 10}, "at least 32 characters"},
		{"no rate limit", Config{TokenSecret: secret}, "GENEALOGY_RATE_LIMIT must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
