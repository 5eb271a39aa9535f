package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultChunkSize is the buffer size used when a caller passes zero
const DefaultChunkSize = 32 * 1024

// partSuffix marks files that are still being written
const partSuffix = ".part"

// Manager handles file writes into a single output directory
type Manager struct {
	outputDir string
	reserved  map[string]bool
	mu        sync.Mutex
}

// NewManager creates a new storage manager, creating the directory if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		reserved:  make(map[string]bool),
	}, nil
}

// Reserve returns a path for name that no other in-flight write holds.
// A collision gets a numeric suffix before the extension (clip_2.mp4).
// Files already on disk are not considered; they get overwritten.
// The returned release func must be called once the write is finished.
func (m *Manager) Reserve(name string) (string, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := name
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; m.reserved[candidate]; n++ {
		candidate = stem + "_" + strconv.Itoa(n) + ext
	}
	m.reserved[candidate] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.reserved, candidate)
			m.mu.Unlock()
		})
	}
	return filepath.Join(m.outputDir, candidate), release
}

// Write streams r into path through a buffer of chunkSize bytes.
// Data goes to a temporary .part file that is renamed into place on success
// and removed on failure.
func (m *Manager) Write(r io.Reader, path string, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	tempFile := path + partSuffix
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.CopyBuffer(onlyWriter{out}, onlyReader{r}, make([]byte, chunkSize))
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write media data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}

// onlyReader and onlyWriter hide ReadFrom/WriteTo so CopyBuffer honours the
// chunk size instead of delegating to the file's own copy path.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }
