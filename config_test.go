package orderhub

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("NATS_ENABLED", "false")
	t.Setenv("RUN_MODE", "")
	t.Setenv("API_PORT", "")
	t.Setenv("TENANT_ID", "")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("JWT_EXPIRATION_MINUTES", "")

	InitConfig(filepath.Join(t.TempDir(), "missing.env"))
	cfg := GetConfig()

	assert.Equal(t, "prod", cfg.Mode)
	assert.Equal(t, ":8080", cfg.ApiPort)
	assert.Equal(t, "default", cfg.TenantID)
	assert.Equal(t, "secret", cfg.JWTConfig.Secret)
	assert.Equal(t, 60, cfg.JWTConfig.Expiration)
	assert.False(t, cfg.RedisConfig.Enabled)
	assert.Equal(t, 0, cfg.RedisConfig.DB)
	assert.False(t, cfg.NatsConfig.Enabled)
	assert.Nil(t, Redis)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ORDERHUB_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("ORDERHUB_TEST_KEY", "fallback"))

	t.Setenv("ORDERHUB_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("ORDERHUB_TEST_KEY", "fallback"))
}
