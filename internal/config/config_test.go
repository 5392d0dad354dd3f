package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg := Load()

	assert.Equal(t, 12*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "fs", cfg.StorageDriver)
	assert.Equal(t, 10*1024*1024, cfg.MaxUploadBytes)
	assert.Equal(t, []string{"admin@labanalytica.com"}, cfg.AdminEmailList())
	assert.False(t, cfg.StrictStatusLifecycle)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Admin@Lab.com , ,ops@lab.com")
	t.Setenv("JWT_EXPIRY", "not-a-duration")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-4")
	t.Setenv("STRICT_STATUS_LIFECYCLE", "true")
	t.Setenv("PUBLIC_FILES_BASE_URL", "https://cdn.lab.com/")

	cfg := Load()

	assert.Equal(t, []string{"admin@lab.com", "ops@lab.com"}, cfg.AdminEmailList())
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.True(t, cfg.StrictStatusLifecycle)
	assert.Equal(t, "https://cdn.lab.com", cfg.PublicFilesBaseURL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{StorageDriver: "s3"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "S3_BUCKET")

	cfg = &Config{JWTSecret: "s", DBPassword: "p", StorageDriver: "fs"}
	assert.NoError(t, cfg.Validate())

	cfg.StorageDriver = "ftp"
	assert.Error(t, cfg.Validate())
}
