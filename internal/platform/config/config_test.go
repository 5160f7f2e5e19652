package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GASTRO_ADDR", "")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("JWT_EXPIRES_SECONDS", "")
	t.Setenv("REPORTS_DIR", "")
	t.Setenv("REPORTS_MAX_UPLOAD_BYTES", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, time.Hour, cfg.JWTExpires)
	assert.Equal(t, "raports", cfg.ReportsDir)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GASTRO_ADDR", ":9090")
	t.Setenv("JWT_SECRET_KEY", "topsecret")
	t.Setenv("JWT_EXPIRES_SECONDS", "60")
	t.Setenv("REPORTS_DIR", "/var/lib/gastro/raports")
	t.Setenv("REPORTS_MAX_UPLOAD_BYTES", "1024")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "topsecret", cfg.JWTSecret)
	assert.Equal(t, time.Minute, cfg.JWTExpires)
	assert.Equal(t, "/var/lib/gastro/raports", cfg.ReportsDir)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
}

func TestFromEnvIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("JWT_EXPIRES_SECONDS", "soon")

	cfg := FromEnv()

	assert.Equal(t, time.Hour, cfg.JWTExpires)
}
