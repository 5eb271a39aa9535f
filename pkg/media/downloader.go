package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"snapify/pkg/config"
	errs "snapify/pkg/errors"
	"snapify/pkg/logger"
	"snapify/pkg/storage"
)

// Item describes a media file written to disk
type Item struct {
	URL  string
	Kind Kind
	Path string
	Size int64
}

// Downloader streams media URLs into per-user directories
type Downloader struct {
	httpClient   *http.Client
	userAgent    string
	chunkSize    int
	// stallTimeout bounds the wait for response headers and for each body read
	stallTimeout time.Duration
	notify       func(path string)
	logger       logger.Logger

	mu       sync.Mutex
	managers map[string]*storage.Manager
}

// NewDownloader creates a downloader from the download settings
func NewDownloader(cfg config.DownloadConfig, userAgent string, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Body stalls are bounded per read in Download
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Downloader{
		httpClient:   &http.Client{Transport: transport},
		userAgent:    userAgent,
		chunkSize:    cfg.ChunkSize,
		stallTimeout: timeout,
		logger:       log,
		managers:     make(map[string]*storage.Manager),
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (d *Downloader) SetHTTPClient(hc *http.Client) {
	d.httpClient = hc
}

// SetNotify registers a callback invoked with the path of every written file
func (d *Downloader) SetNotify(fn func(path string)) {
	d.notify = fn
}

// Download fetches mediaURL into destDir.
//
// Failures that should not stop a pass (non-2xx responses, transport errors,
// stalled bodies, local write errors) are returned as download_skipped errors
// and leave no file behind. A cancelled context is returned as is.
func (d *Downloader) Download(ctx context.Context, mediaURL, destDir string) (*Item, error) {
	manager, err := d.managerFor(destDir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeDownloadSkipped, err, "cannot prepare destination")
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeDownloadSkipped, err, "invalid media URL")
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrorTypeDownloadSkipped, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.New(errs.ErrorTypeDownloadSkipped, resp.StatusCode,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	kind := KindFromContentType(resp.Header.Get("Content-Type"))
	path, release := manager.Reserve(SanitizeFilename(mediaURL) + kind.Extension())
	defer release()

	body := newStallReader(resp.Body, d.stallTimeout, cancel)
	defer body.stop()

	size, err := manager.Write(body, path, d.chunkSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if body.stalled() {
			return nil, errs.Wrap(errs.ErrorTypeDownloadSkipped, err,
				fmt.Sprintf("no data received for %s", d.stallTimeout))
		}
		return nil, errs.Wrap(errs.ErrorTypeDownloadSkipped, err, "failed to store media")
	}

	if d.notify != nil {
		d.notify(path)
	}

	return &Item{URL: mediaURL, Kind: kind, Path: path, Size: size}, nil
}

func (d *Downloader) managerFor(dir string) (*storage.Manager, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if m, ok := d.managers[dir]; ok {
		// the directory may have been removed between passes
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		return m, nil
	}

	m, err := storage.NewManager(dir)
	if err != nil {
		return nil, err
	}
	d.managers[dir] = m
	return m, nil
}

// stallReader cancels the request when no bytes arrive for idle
type stallReader struct {
	r     io.Reader
	idle  time.Duration
	timer *time.Timer
	fired atomic.Bool
}

func newStallReader(r io.Reader, idle time.Duration, onStall context.CancelFunc) *stallReader {
	sr := &stallReader{r: r, idle: idle}
	sr.timer = time.AfterFunc(idle, func() {
		sr.fired.Store(true)
		onStall()
	})
	return sr
}

func (sr *stallReader) Read(p []byte) (int, error) {
	n, err := sr.r.Read(p)
	if n > 0 && !sr.fired.Load() {
		sr.timer.Reset(sr.idle)
	}
	return n, err
}

func (sr *stallReader) stalled() bool {
	return sr.fired.Load()
}

func (sr *stallReader) stop() {
	sr.timer.Stop()
}
