// Package scheduler repeats sync passes at a fixed interval until cancelled.
package scheduler

import (
	"context"
	"errors"
	"time"

	errs "snapify/pkg/errors"
	"snapify/pkg/logger"
	"snapify/pkg/retry"
	"snapify/pkg/syncer"
)

// PassRunner runs one polling pass
type PassRunner interface {
	RunPass(ctx context.Context, usernames []string) ([]syncer.UserSyncResult, error)
}

// Monitor runs passes back to back with a fixed pause between the end of one
// pass and the start of the next.
type Monitor struct {
	runner    PassRunner
	usernames []string
	interval  time.Duration
	logger    logger.Logger
	onPass    func([]syncer.UserSyncResult)
	onWait    func(next time.Time)
}

// NewMonitor creates a monitor over runner
func NewMonitor(runner PassRunner, usernames []string, interval time.Duration, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Monitor{
		runner:    runner,
		usernames: usernames,
		interval:  interval,
		logger:    log.WithField("component", "monitor"),
	}
}

// OnPass registers a callback receiving each completed pass's rows
func (m *Monitor) OnPass(fn func([]syncer.UserSyncResult)) {
	m.onPass = fn
}

// OnWait registers a callback invoked before each pause with the time the
// next pass is due
func (m *Monitor) OnWait(fn func(next time.Time)) {
	m.onWait = fn
}

// Run loops until ctx is cancelled, which yields a nil error. A state
// persistence failure stops the loop and is returned; other pass errors are
// logged and the loop continues.
func (m *Monitor) Run(ctx context.Context) error {
	logger.LogComponentStart("monitor", map[string]interface{}{
		"users":    len(m.usernames),
		"interval": m.interval.String(),
	})

	for pass := 1; ; pass++ {
		rows, err := m.runner.RunPass(ctx, m.usernames)
		if ctx.Err() != nil {
			logger.LogComponentStop("monitor", "cancelled")
			return nil
		}
		if rows != nil && m.onPass != nil {
			m.onPass(rows)
		}
		if err != nil {
			if errs.Is(err, errs.ErrorTypeStateIO) {
				logger.LogComponentStop("monitor", "state persistence failed")
				return err
			}
			m.logger.WithError(err).WarnWithFields("Pass failed", map[string]interface{}{
				"pass": pass,
			})
		}

		if m.onWait != nil {
			m.onWait(time.Now().Add(m.interval))
		}
		if err := retry.Wait(ctx, m.interval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.LogComponentStop("monitor", "cancelled")
				return nil
			}
			return err
		}
	}
}
