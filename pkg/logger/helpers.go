package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogPass logs the summary of one polling pass
func LogPass(log Logger, users, newItems, downloaded int, duration time.Duration) {
	if log == nil {
		log = GetLogger()
	}
	log.InfoWithFields("Pass completed", map[string]interface{}{
		"users":      users,
		"new_items":  newItems,
		"downloaded": downloaded,
		"duration":   duration,
	})
}

// LogDownload logs the outcome of a single media download
func LogDownload(log Logger, username, mediaURL, path string, err error) {
	fields := map[string]interface{}{
		"username": username,
		"url":      mediaURL,
	}

	if err != nil {
		log.WithError(err).WarnWithFields("Download skipped", fields)
		return
	}
	fields["path"] = path
	log.DebugWithFields("Download completed", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{zl: zerolog.Nop()}
}

// nopLogger is a logger that does nothing
type nopLogger struct {
	zl zerolog.Logger
}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return &n.zl }
