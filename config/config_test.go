package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadShippedLocalConfig(t *testing.T) {
	t.Setenv("CONFIG_ENV", "local")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "local-dev-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "rest", cfg.Classifier.Backend)
	assert.Equal(t, 8*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Classifier.Breaker.OpenTimeout)
	assert.Equal(t, 2*time.Second, cfg.Outbox.Interval)
	assert.Empty(t, cfg.Classifier.APIKey)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("jwt:\n  secret: ${JWT_SECRET}\n"), 0o600))
	t.Setenv("CONFIG_ENV", "local")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "jwt.secret")

	cfg, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestValidateBackend(t *testing.T) {
	cfg := Default()
	cfg.JWT.Secret = "s"
	require.NoError(t, cfg.Validate())

	cfg.Classifier.Backend = "GenAI"
	assert.NoError(t, cfg.Validate())

	cfg.Classifier.Backend = "soap"
	assert.Error(t, cfg.Validate())

	cfg.Classifier.Backend = "rest"
	cfg.Classifier.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}
