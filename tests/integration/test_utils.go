package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapify/pkg/config"
	"snapify/pkg/logger"
	"snapify/pkg/media"
	"snapify/pkg/state"
	"snapify/pkg/story"
	"snapify/pkg/syncer"
)

// TestHelper wires a full sync stack against a MockStoryServer
type TestHelper struct {
	t       *testing.T
	Server  *MockStoryServer
	Config  *config.Config
	Logger  *logger.TestLogger
	tempDir string
}

// NewTestHelper creates a helper with its own server and temp directory
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	server := NewMockStoryServer()
	t.Cleanup(server.Close)

	tempDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Provider.BaseURL = server.URL()
	cfg.Provider.FetchTimeout = 5 * time.Second
	cfg.Output.BaseDirectory = filepath.Join(tempDir, "snap_media")
	cfg.State.Path = filepath.Join(tempDir, "autoposts.json")
	cfg.Download.DownloadTimeout = 5 * time.Second
	cfg.Download.ChunkSize = 1024
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond

	return &TestHelper{
		t:       t,
		Server:  server,
		Config:  cfg,
		Logger:  logger.NewTestLogger(),
		tempDir: tempDir,
	}
}

// NewEngine builds an engine with a fresh store, as a new process would
func (h *TestHelper) NewEngine() (*syncer.Engine, state.Store) {
	h.t.Helper()

	store, err := state.Open(h.Config.State.Backend, h.Config.State.Path, h.Logger)
	if err != nil {
		h.t.Fatalf("Failed to open state: %v", err)
	}
	h.t.Cleanup(func() { store.Close() })

	engine, err := syncer.New(syncer.Options{
		Fetcher:             story.NewClient(h.Config.Provider, h.Config.Retry, h.Logger),
		Downloader:          media.NewDownloader(h.Config.Download, h.Config.Provider.UserAgent, h.Logger),
		Store:               store,
		BaseDir:             h.Config.Output.BaseDirectory,
		ConcurrentFetches:   h.Config.Download.ConcurrentFetches,
		ConcurrentDownloads: h.Config.Download.ConcurrentDownloads,
		Logger:              h.Logger,
	})
	if err != nil {
		h.t.Fatalf("Failed to create engine: %v", err)
	}
	return engine, store
}

// UserFiles lists the files written for a user, sorted by name
func (h *TestHelper) UserFiles(username string) []string {
	h.t.Helper()

	entries, err := os.ReadDir(filepath.Join(h.Config.Output.BaseDirectory, username))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		h.t.Fatalf("Failed to read user dir: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// LoadState reads the persisted state from disk
func (h *TestHelper) LoadState() *state.State {
	h.t.Helper()

	store, err := state.Open(h.Config.State.Backend, h.Config.State.Path, h.Logger)
	if err != nil {
		h.t.Fatalf("Failed to open state: %v", err)
	}
	defer store.Close()

	st, err := store.Load()
	if err != nil {
		h.t.Fatalf("Failed to load state: %v", err)
	}
	return st
}
