package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestWithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.WithFields(map[string]interface{}{"account_id": "0042"}).Warn("status %s", "03")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "status 03", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "0042", entries[0].ContextMap()["account_id"])
}

func TestSetLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	log := New("INFO")
	require.NoError(t, log.SetLogFile(path))

	log.Debug("hidden")
	log.Info("written %d", 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written 1")
	assert.NotContains(t, string(data), "hidden")
}
