package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"snapify/pkg/config"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return newZerologLogger(&zlog, nil)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"empty level defaults to info", &config.LoggingConfig{}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "snapify.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
			if tt.cfg.File != "" {
				_, statErr := os.Stat(tt.cfg.File)
				assert.NoError(t, statErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"trace", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, out, msg)
	}
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	child := l.WithField("username", "alice").WithFields(map[string]interface{}{
		"new_items": 3,
		"ok":        true,
	})
	child.Info("child message")
	assert.Contains(t, buf.String(), `"username":"alice"`)
	assert.Contains(t, buf.String(), `"new_items":3`)
	assert.Contains(t, buf.String(), `"ok":true`)

	buf.Reset()
	l.Info("parent message")
	assert.NotContains(t, buf.String(), "alice")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("disk full")).Error("save failed")
	assert.Contains(t, buf.String(), "save failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.InfoWithFields("typed", map[string]interface{}{
		"str":  "s",
		"i64":  int64(7),
		"f":    1.5,
		"dur":  time.Second,
		"strs": []string{"a", "b"},
		"err":  errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, `"str":"s"`)
	assert.Contains(t, out, `"i64":7`)
	assert.Contains(t, out, `"f":1.5`)
	assert.Contains(t, out, `"strs":["a","b"]`)
	assert.Contains(t, out, `"err":"boom"`)
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, WithField("k", "v"))
	assert.NotNil(t, WithError(errors.New("x")))
}

func TestTestLoggerCapturesChildFields(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("username", "bob").WithError(errors.New("404")).Warn("story not found")
	tl.Info("plain")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "bob", msgs[0].Fields["username"])
	assert.Equal(t, "404", msgs[0].Fields["error"])
	assert.True(t, tl.HasMessage("plain"))
	assert.False(t, tl.HasError())

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestLogDownload(t *testing.T) {
	tl := NewTestLogger()

	LogDownload(tl, "alice", "https://cdn/a", "/tmp/a.jpg", nil)
	LogDownload(tl, "alice", "https://cdn/b", "", errors.New("status 500"))

	debug := tl.GetMessagesByLevel("DEBUG")
	require.Len(t, debug, 1)
	assert.Equal(t, "/tmp/a.jpg", debug[0].Fields["path"])

	warn := tl.GetMessagesByLevel("WARN")
	require.Len(t, warn, 1)
	assert.Equal(t, "status 500", warn[0].Fields["error"])
}
