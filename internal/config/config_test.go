package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/lists")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer@example.com")
	t.Setenv("SMTP_PASSWORD", "pw")
	t.Setenv("S3_ENDPOINT", "http://minio:9000/")
	t.Setenv("S3_ACCESS_KEY", "ak")
	t.Setenv("S3_SECRET_KEY", "sk")
	t.Setenv("S3_BUCKET", "avatars")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, []byte("secret"), cfg.JWTSecret)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "mailer@example.com", cfg.SMTP.From)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Equal(t, "http://minio:9000/avatars", cfg.S3.PublicURL)
	assert.False(t, cfg.Search.Enabled())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 12*time.Second, cfg.AuthRateLimit.Interval())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("S3_PUBLIC_URL", "https://cdn.example.com/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ES_URL", "http://es:9200")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "noreply@example.com", cfg.SMTP.From)
	assert.Equal(t, "https://cdn.example.com", cfg.S3.PublicURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.Search.Enabled())
	assert.Equal(t, "lists", cfg.Search.Index)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("S3_BUCKET", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("SOME_INT", "nope")
	assert.Equal(t, 3, EnvIntDefault("SOME_INT", 3))
	t.Setenv("SOME_INT", "7")
	assert.Equal(t, 7, EnvIntDefault("SOME_INT", 3))
}

func TestRateLimitInterval_Disabled(t *testing.T) {
	assert.Zero(t, RateLimitConfig{PerMinute: 0}.Interval())
}
