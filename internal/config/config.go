// Package config loads SafetyHub settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvDB               = "SAFETYHUB_DB"
	EnvAdminPIN         = "SAFETYHUB_ADMIN_PIN"
	EnvLogLevel         = "SAFETYHUB_LOG_LEVEL"
	EnvLogFile          = "SAFETYHUB_LOG_FILE"
	EnvInviteBaseURL    = "SAFETYHUB_INVITE_BASE_URL"
	EnvCompletionPrefix = "SAFETYHUB_COMPLETION_PREFIX"
)

// Config holds all runtime settings.
type Config struct {
	// DBPath is the SQLite file. Empty means the XDG default.
	DBPath string

	// AdminPIN is the sentinel typed into the access code field to open
	// the admin console. Default: "1234".
	AdminPIN string

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string

	// LogFile receives the TUI's log output. Empty means a
	// safetyhub.log next to the database.
	LogFile string

	// InviteBaseURL prefixes generated invite links.
	InviteBaseURL string

	// CompletionPrefix starts every completion id. Default: "SH".
	CompletionPrefix string
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() Config {
	return Config{
		AdminPIN:         "1234",
		LogLevel:         "info",
		InviteBaseURL:    "https://safetyhub.example.com",
		CompletionPrefix: "SH",
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvAdminPIN); v != "" {
		cfg.AdminPIN = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(EnvInviteBaseURL); v != "" {
		cfg.InviteBaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v := os.Getenv(EnvCompletionPrefix); v != "" {
		cfg.CompletionPrefix = strings.ToUpper(strings.TrimSpace(v))
	}

	return cfg
}

// LoadEnvFile loads variables from path into the process environment
// without overriding variables that are already set. An empty path means
// ".env" in the working directory, which may be absent.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the env file and then the environment.
func Load(envFile string) (Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for values the app cannot run with.
func (c Config) Validate() error {
	if c.AdminPIN == "" {
		return fmt.Errorf("%s must not be empty", EnvAdminPIN)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.CompletionPrefix == "" {
		return fmt.Errorf("%s must not be empty", EnvCompletionPrefix)
	}
	if c.InviteBaseURL != "" {
		u, err := url.Parse(c.InviteBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", EnvInviteBaseURL, c.InviteBaseURL)
		}
	}
	return nil
}

// Level returns the configured slog level, defaulting to info.
func (c Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}
