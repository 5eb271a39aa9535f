// Package logger provides a structured logging interface for snapify.
//
// It wraps zerolog with:
//   - Leveled logging (Debug, Info, Warn, Error)
//   - Structured fields via WithField/WithFields and the *WithFields methods
//   - Coloured console output on stderr, optionally mirrored to a file
//   - A global logger for packages that are not handed one explicitly
//
// Basic usage:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("username", "alice").Info("Fetching story")
//
// Components accept a Logger and fall back to GetLogger when given nil.
// Tests use NewTestLogger to assert on captured messages.
package logger
