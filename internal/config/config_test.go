package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "admin123", cfg.AdminPassword)
	assert.Equal(t, "admin123_ahmetli_secret", cfg.TokenSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenMaxAge)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, "cms.sync", cfg.RabbitExchange)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(HTTPAddr, ":9999")
	t.Setenv(AdminPassword, "gizli")
	t.Setenv(PageSize, "50")
	t.Setenv(TokenMaxAge, "1h")
	t.Setenv(DatabaseURL, "postgres://localhost/cms")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "gizli_ahmetli_secret", cfg.TokenSecret, "token secret derives from the password")
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, time.Hour, cfg.TokenMaxAge)
	assert.Equal(t, "postgres://localhost/cms", cfg.PostgresDSN)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv(PageSize, "yirmi")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestExplicitTokenSecretWins(t *testing.T) {
	t.Setenv(AdminPassword, "gizli")
	t.Setenv(TokenSecret, "baska-bir-secret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "baska-bir-secret", cfg.TokenSecret)
}
