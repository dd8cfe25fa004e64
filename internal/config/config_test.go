package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDB, EnvAdminPIN, EnvLogLevel, EnvLogFile, EnvInviteBaseURL, EnvCompletionPrefix} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "1234", cfg.AdminPIN)
	assert.Equal(t, "SH", cfg.CompletionPrefix)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDB, "/tmp/sh.db")
	t.Setenv(EnvAdminPIN, " 9999 ")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvInviteBaseURL, "https://train.example.com/")
	t.Setenv(EnvCompletionPrefix, "eck")

	cfg := FromEnv()
	assert.Equal(t, "/tmp/sh.db", cfg.DBPath)
	assert.Equal(t, "9999", cfg.AdminPIN)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "https://train.example.com", cfg.InviteBaseURL)
	assert.Equal(t, "ECK", cfg.CompletionPrefix)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty pin", func(c *Config) { c.AdminPIN = "" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty prefix", func(c *Config) { c.CompletionPrefix = "" }},
		{"relative invite url", func(c *Config) { c.InviteBaseURL = "train/invite" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvAdminPIN)
	os.Unsetenv(EnvLogLevel)

	path := filepath.Join(t.TempDir(), "safetyhub.env")
	require.NoError(t, os.WriteFile(path, []byte("SAFETYHUB_ADMIN_PIN=4321\nSAFETYHUB_LOG_LEVEL=warn\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "4321", cfg.AdminPIN)
	assert.Equal(t, slog.LevelWarn, cfg.Level())

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err, "an explicit env file must exist")
}
