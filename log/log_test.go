package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"WARN", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	} {
		lvl, err := ParseLevel(tc.in)
		assert.Equal(t, tc.want, lvl, tc.in)
		if tc.ok {
			assert.NoError(t, err, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestLoggerWritesJSONWithCallstack(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("info", &buf)

	lg.Debug("hidden")
	lg.Info("frame", slog.Int("n", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "frame", rec["msg"])
	assert.Equal(t, float64(3), rec["n"])

	stack, ok := rec["callstack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, stack)
	assert.Contains(t, stack[0], "log_test.go")
}

func TestWithKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("debug", &buf).With(slog.String("component", "vkg"))
	lg.Debugf("created %d buffers", 2)

	assert.Contains(t, buf.String(), `"component":"vkg"`)
	assert.Contains(t, buf.String(), "created 2 buffers")
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	assert.NotPanics(t, func() {
		lg.Debug("x")
		lg.Infof("x %d", 1)
		lg.Warn("x")
		lg.Errorf("x %s", "y")
		assert.Nil(t, lg.With("a", 1))
	})
}

type closeCounter struct {
	bytes.Buffer
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestClose(t *testing.T) {
	var nilLogger *Logger
	assert.NoError(t, nilLogger.Close())

	var buf bytes.Buffer
	assert.NoError(t, NewWithWriter("info", &buf).Close())

	w := &closeCounter{}
	lg := NewWithWriter("info", w)
	lg.Info("before close")
	require.NoError(t, lg.With("k", "v").Close())
	assert.Equal(t, 1, w.closed)
	assert.Contains(t, w.String(), "before close")
}

func TestNewClosesLogFile(t *testing.T) {
	dir := t.TempDir()
	lg := New("info", dir)
	assert.Equal(t, filepath.Join(dir, "hw3d.slog"), lg.LogFile)
	require.NoError(t, lg.Close())
	assert.FileExists(t, lg.LogFile)
}
