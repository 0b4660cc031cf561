package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	quiet, err := New(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.InfoLevel))

	verbose, err := New(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specsync.log")

	logger, err := New(false, path)
	require.NoError(t, err)
	logger.Info("verification finished")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "verification finished", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(false, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize logger")
}

func TestNop(t *testing.T) {
	assert.False(t, Nop().Core().Enabled(zapcore.ErrorLevel))
}
