package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinot-bajgora/ECK-safety/internal/config"
)

func TestPath(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, filepath.Join("/data/safetyhub", DefaultFileName), Path(cfg, "/data/safetyhub/safetyhub.db"))

	cfg.LogFile = "/var/log/sh.log"
	assert.Equal(t, "/var/log/sh.log", Path(cfg, "/data/safetyhub/safetyhub.db"))
}

func TestNewFileAppends(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	db := filepath.Join(dir, "nested", "safetyhub.db")

	logger, closer, err := NewFile(cfg, db)
	require.NoError(t, err)
	logger.Info("seat consumed", "code", "PEJA")
	logger.Debug("hidden at info level")
	require.NoError(t, closer.Close())

	logger, closer, err = NewFile(cfg, db)
	require.NoError(t, err)
	logger.Warn("second run")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "nested", DefaultFileName))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `msg="seat consumed" code=PEJA`)
	assert.Contains(t, out, `msg="second run"`)
	assert.NotContains(t, out, "hidden")
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelError)
	l.Warn("nope")
	l.Error("yes")
	assert.NotContains(t, buf.String(), "nope")
	assert.Contains(t, buf.String(), "yes")
}
