// Package retry provides backoff and retry logic for transient failures in
// story page fetches.
//
// Only errors classified as network or server errors are retried; a 404 or a
// payload that cannot be parsed is returned immediately. Wait doubles as the
// cancellable sleep between monitor passes.
//
//	cfg := retry.FromSettings(appCfg.Retry, log)
//	feed, err := retry.DoWithResult(ctx, func(ctx context.Context) (*story.Feed, error) {
//		return fetchOnce(ctx, username)
//	}, cfg)
package retry
