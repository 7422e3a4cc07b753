package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 8, cfg.KYC.UploadTimeoutSeconds)
	assert.Equal(t, 10, cfg.Provider.TimeoutSeconds)
	assert.False(t, cfg.S3.Configured())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("S3_BUCKET", "kyc-docs")
	t.Setenv("S3_REGION", "ap-south-1")
	t.Setenv("S3_ACCESS_KEY_ID", "AKIA...")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("KYC_PROVIDER_URL", "https://verify.example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.True(t, cfg.Environment.IsProduction())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.S3.Configured())
	assert.Equal(t, "https://verify.example.com", cfg.Provider.BaseURL)
}

func TestEnvironmentIsProduction(t *testing.T) {
	assert.True(t, EnvProduction.IsProduction())
	assert.False(t, EnvDevelopment.IsProduction())
	assert.False(t, EnvStaging.IsProduction())
}
