// FileCache provides read access to source files using memory-mapped I/O.
//
// Story source text is carried verbatim into every StoryRecord, so the same
// file bytes are read during extraction and again when a watcher re-runs.
// Mapping the files keeps repeated reads cheap: only accessed pages are
// resident, and slicing is O(1). When mmap fails (weird filesystems,
// permissions) the cache falls back to os.ReadFile and keeps working.
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache caches memory-mapped files by path.
//
// Thread-safe: reads take an RLock, loads take the write lock with a
// double-check so concurrent workers hitting the same file load it once.
type FileCache struct {
	mu       sync.RWMutex
	mapped   map[string]mmap.MMap
	fallback map[string][]byte
	files    []*os.File
	logger   *slog.Logger

	maxFiles int
}

// NewFileCache creates a FileCache. maxFiles bounds the number of cached
// entries (0 means unlimited); logger may be nil.
func NewFileCache(maxFiles int, logger *slog.Logger) *FileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCache{
		mapped:   make(map[string]mmap.MMap),
		fallback: make(map[string][]byte),
		logger:   logger,
		maxFiles: maxFiles,
	}
}

// Read returns the contents of filePath, mapping it on first access.
//
// The returned slice is backed by the mapping and must not be modified or
// retained past Close. Callers that need ownership should copy.
func (fc *FileCache) Read(filePath string) ([]byte, error) {
	fc.mu.RLock()
	if data, ok := fc.mapped[filePath]; ok {
		fc.mu.RUnlock()
		return data, nil
	}
	if data, ok := fc.fallback[filePath]; ok {
		fc.mu.RUnlock()
		return data, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have loaded it while we waited.
	if data, ok := fc.mapped[filePath]; ok {
		return data, nil
	}
	if data, ok := fc.fallback[filePath]; ok {
		return data, nil
	}

	if fc.maxFiles > 0 && len(fc.mapped)+len(fc.fallback) >= fc.maxFiles {
		return nil, fmt.Errorf("file cache limit reached (%d files)", fc.maxFiles)
	}

	return fc.load(filePath)
}

// load maps a file, falling back to os.ReadFile if mmap fails.
// Must be called while holding the write lock.
func (fc *FileCache) load(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		fc.fallback[filePath] = []byte{}
		return []byte{}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		fc.logger.Warn("mmap failed, using fallback read", "file", filePath, "error", err)
		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap and fallback read both failed for %q: %w", filePath, readErr)
		}
		fc.fallback[filePath] = raw
		return raw, nil
	}

	fc.mapped[filePath] = data
	fc.files = append(fc.files, file)
	return data, nil
}

// Evict drops a single cached entry, unmapping it if mapped.
// Used by watchers when a file changes on disk.
func (fc *FileCache) Evict(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if data, ok := fc.mapped[filePath]; ok {
		if err := data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap file", "file", filePath, "error", err)
		}
		delete(fc.mapped, filePath)
	}
	delete(fc.fallback, filePath)
}

// Size returns the number of cached entries.
func (fc *FileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.mapped) + len(fc.fallback)
}

// Close unmaps all files and releases file descriptors.
func (fc *FileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, data := range fc.mapped {
		if err := data.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("unmap %q: %w", path, err)
		}
	}
	for _, f := range fc.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	fc.mapped = make(map[string]mmap.MMap)
	fc.fallback = make(map[string][]byte)
	fc.files = nil
	return firstErr
}
