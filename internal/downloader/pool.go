package downloader

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"snapify/pkg/logger"
	"snapify/pkg/media"
)

// Job represents a single media download task
type Job struct {
	// Index is the position of the URL in the user's feed
	Index    int
	URL      string
	Username string
	DestDir  string
}

// Result represents the outcome of a download job
type Result struct {
	Job      Job
	Item     *media.Item
	Err      error
	Duration time.Duration
}

// MediaFetcher downloads one media URL into a directory
type MediaFetcher interface {
	Download(ctx context.Context, url, destDir string) (*media.Item, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	stopOnce    sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     MediaFetcher
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool bound to ctx
func NewWorkerPool(ctx context.Context, numWorkers int, fetcher MediaFetcher, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for workers to drain it and closes the
// result channel. Results must be consumed concurrently or Stop can block.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()

		wp.logger.Debug("Worker pool stopped")
	})
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()

	item, err := wp.fetcher.Download(wp.ctx, job.URL, job.DestDir)
	result := Result{
		Job:      job,
		Item:     item,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		logger.LogDownload(wp.logger.WithField("worker_id", workerID), job.Username, job.URL, "", err)
		return result
	}

	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"username":  job.Username,
		"path":      item.Path,
		"size":      item.Size,
		"duration":  result.Duration,
	})

	return result
}

// Run downloads jobs with numWorkers workers and returns the results sorted by
// Job.Index. It stops early if ctx is cancelled; the error is then ctx.Err()
// and the results cover only the jobs that finished.
func Run(ctx context.Context, numWorkers int, fetcher MediaFetcher, jobs []Job, log logger.Logger) ([]Result, error) {
	pool := NewWorkerPool(ctx, numWorkers, fetcher, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	results := make([]Result, 0, len(jobs))
	for r := range pool.Results() {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Job.Index < results[j].Job.Index
	})
	return results, ctx.Err()
}
