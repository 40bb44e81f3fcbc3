package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost/pos_test")
	t.Setenv("BUSINESS_ID", "biz-test")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/pos_test", cfg.DatabaseURL)
	assert.Equal(t, "biz-test", cfg.BusinessID)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, cfg, GetConfig())
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost/pos_test")
	t.Setenv("BUSINESS_ID", "biz-test")
	t.Setenv("PORT", "")
	t.Setenv("LOCAL_CACHE_PATH", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "pos_cache.db", cfg.LocalCachePath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestValidateRequiresRemoteStoreAndBusiness(t *testing.T) {
	cfg := &Config{BusinessID: "biz-test"}
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg = &Config{DatabaseURL: "postgres://localhost/pos"}
	assert.ErrorContains(t, cfg.Validate(), "BUSINESS_ID")

	cfg = &Config{DatabaseURL: "postgres://localhost/pos", BusinessID: "biz-test"}
	assert.NoError(t, cfg.Validate())
}
