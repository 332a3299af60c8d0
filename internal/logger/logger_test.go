package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew(t *testing.T) {
	t.Run("json handler respects level", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Config{Level: "warn", Format: "json"}, &buf)
		require.NoError(t, err)

		l.Info("hidden")
		l.Warn("alert email failed", "alert_id", 7)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "alert email failed", entry["msg"])
		assert.Equal(t, float64(7), entry["alert_id"])
	})

	t.Run("text handler", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Config{Format: "text"}, &buf)
		require.NoError(t, err)

		l.Info("started", "port", "8080")
		assert.Contains(t, buf.String(), "msg=started")
		assert.Contains(t, buf.String(), "port=8080")
	})

	t.Run("file output is created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tracker.log")
		l, err := New(Config{Output: OutputFile, FilePath: path, MaxSize: 1}, nil)
		require.NoError(t, err)

		l.Info("written to file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to file")
	})

	t.Run("file output needs a path", func(t *testing.T) {
		_, err := New(Config{Output: OutputFile}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown output", func(t *testing.T) {
		_, err := New(Config{Output: "syslog", FilePath: filepath.Join(t.TempDir(), "x.log")}, nil)
		assert.Error(t, err)
	})
}
