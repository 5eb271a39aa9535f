package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"snapify/internal/downloader"
	errs "snapify/pkg/errors"
	"snapify/pkg/logger"
	"snapify/pkg/state"
)

// Options wires an Engine's collaborators
type Options struct {
	Fetcher    FeedFetcher
	Downloader downloader.MediaFetcher
	Store      state.Store
	// BaseDir receives one sub-directory per user
	BaseDir             string
	ConcurrentFetches   int
	ConcurrentDownloads int
	Logger              logger.Logger
	// Now stamps results; defaults to time.Now
	Now func() time.Time
}

// Engine runs polling passes and owns the seen state between them
type Engine struct {
	fetcher     FeedFetcher
	downloader  downloader.MediaFetcher
	store       state.Store
	state       *state.State
	baseDir     string
	fetches     int
	concurrency int
	logger      logger.Logger
	now         func() time.Time
}

type fetchOutcome struct {
	urls []string
	err  error
}

// New creates an engine and loads the persisted state once
func New(opts Options) (*Engine, error) {
	if opts.Fetcher == nil || opts.Downloader == nil || opts.Store == nil {
		return nil, errors.New("syncer: fetcher, downloader and store are required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fetches := opts.ConcurrentFetches
	if fetches < 1 {
		fetches = 1
	}
	concurrency := opts.ConcurrentDownloads
	if concurrency < 1 {
		concurrency = 1
	}

	st, err := opts.Store.Load()
	if err != nil {
		log.WithError(err).Warn("Could not load state, starting empty")
		st = state.New()
	}

	return &Engine{
		fetcher:     opts.Fetcher,
		downloader:  opts.Downloader,
		store:       opts.Store,
		state:       st,
		baseDir:     opts.BaseDir,
		fetches:     fetches,
		concurrency: concurrency,
		logger:      log,
		now:         now,
	}, nil
}

// State returns a copy of the in-memory seen state
func (e *Engine) State() *state.State {
	return e.state.Clone()
}

// RunPass performs one fetch-diff-download-persist iteration over usernames.
//
// Per-user failures are reported in the returned rows and never abort the
// pass. The seen state is saved once, after every user is processed; a save
// failure returns the rows together with a state_io error and keeps the
// merged state in memory. If ctx is cancelled mid-pass nothing is saved and
// ctx.Err() is returned.
func (e *Engine) RunPass(ctx context.Context, usernames []string) ([]UserSyncResult, error) {
	start := time.Now()
	log := e.logger.WithField("pass_id", uuid.NewString())
	log.DebugWithFields("Pass started", map[string]interface{}{
		"users": len(usernames),
	})

	outcomes := e.fetchAll(ctx, usernames, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := e.state.Clone()
	rows := make([]UserSyncResult, 0, len(usernames))
	for i, username := range usernames {
		row, err := e.syncUser(ctx, working, username, outcomes[i], log)
		if err != nil {
			log.WithError(err).Warn("Pass cancelled, state not saved")
			return nil, err
		}
		rows = append(rows, row)
	}

	e.state = working
	newItems, downloaded := Totals(rows)
	logger.LogPass(log, len(rows), newItems, downloaded, time.Since(start))

	if err := e.store.Save(e.state); err != nil {
		log.WithError(err).Error("Failed to persist state")
		if !errs.Is(err, errs.ErrorTypeStateIO) {
			err = errs.Wrap(errs.ErrorTypeStateIO, err, "failed to persist state")
		}
		return rows, err
	}

	return rows, nil
}

// fetchAll fetches every feed with bounded parallelism. Results are indexed
// like usernames.
func (e *Engine) fetchAll(ctx context.Context, usernames []string, log logger.Logger) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(usernames))

	var g errgroup.Group
	g.SetLimit(e.fetches)
	for i, username := range usernames {
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = fetchOutcome{err: ctx.Err()}
				return nil
			}
			feed, err := e.fetcher.FetchStory(ctx, username)
			if err != nil {
				outcomes[i] = fetchOutcome{err: err}
				return nil
			}
			outcomes[i] = fetchOutcome{urls: feed.MediaURLs}
			return nil
		})
	}
	// workers never return errors; failures live in outcomes
	_ = g.Wait()

	log.DebugWithFields("Feeds fetched", map[string]interface{}{
		"users": len(usernames),
	})
	return outcomes
}

// syncUser diffs, downloads and merges one user's feed into working.
// The only error it returns is cancellation.
func (e *Engine) syncUser(ctx context.Context, working *state.State, username string, outcome fetchOutcome, passLog logger.Logger) (UserSyncResult, error) {
	log := passLog.WithField("username", username)
	row := UserSyncResult{Username: username, Status: StatusOK}

	if outcome.err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		row.Status, row.Reason = classifyFetchError(outcome.err)
		row.CheckedAt = e.now()
		log.WithError(outcome.err).WarnWithFields("Feed unavailable", map[string]interface{}{
			"status": string(row.Status),
		})
		return row, nil
	}

	fresh := working.Diff(username, outcome.urls)
	row.NewItems = len(fresh)

	if len(fresh) > 0 {
		destDir := filepath.Join(e.baseDir, userDirName(username))
		jobs := make([]downloader.Job, len(fresh))
		for i, url := range fresh {
			jobs[i] = downloader.Job{Index: i, URL: url, Username: username, DestDir: destDir}
		}

		results, err := downloader.Run(ctx, e.concurrency, e.downloader, jobs, log)
		if err != nil {
			return row, err
		}
		for _, r := range results {
			if r.Err != nil {
				row.Skipped++
				continue
			}
			row.Downloaded++
			row.Files = append(row.Files, r.Item.Path)
		}
	}

	// failed downloads are marked seen too; they are not retried
	working.Merge(username, fresh)
	row.CheckedAt = e.now()

	log.DebugWithFields("User synced", map[string]interface{}{
		"new_items":  row.NewItems,
		"downloaded": row.Downloaded,
		"skipped":    row.Skipped,
	})
	return row, nil
}

func classifyFetchError(err error) (Status, string) {
	switch errs.TypeOf(err) {
	case errs.ErrorTypeNotFound:
		return StatusNotFound, "feed not found"
	case errs.ErrorTypeParsing:
		return StatusParseFailed, "story data unreadable"
	default:
		return StatusFetchFailed, fmt.Sprintf("fetch failed: %v", err)
	}
}
