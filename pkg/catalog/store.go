package catalog

import (
	"os"
	"sync"
	"time"
)

// Store holds the current catalog behind a read-write lock.
//
// Replace is the only mutation point: it swaps the catalog pointer
// atomically, so readers never observe a half-populated catalog. A full
// extraction run produces a new catalog and replaces the old one wholesale;
// there are no partial updates.
type Store struct {
	mu         sync.RWMutex
	current    *Catalog
	loadedFrom string
	loadedAt   time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current catalog, or false when none has been loaded.
func (s *Store) Get() (*Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}

// Replace swaps in a new catalog.
func (s *Store) Replace(c *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
	s.loadedFrom = ""
	s.loadedAt = time.Now()
}

// ReplaceFrom swaps in a catalog loaded from a file, recording the path so
// Fresh can later compare against the file's modification time.
func (s *Store) ReplaceFrom(c *Catalog, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
	s.loadedFrom = path
	s.loadedAt = time.Now()
}

// Invalidate clears the store.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.loadedFrom = ""
	s.loadedAt = time.Time{}
}

// Fresh reports whether the held catalog is at least as new as the file it
// was loaded from. A store not backed by a file is always fresh; a missing
// backing file means stale.
func (s *Store) Fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false
	}
	if s.loadedFrom == "" {
		return true
	}
	info, err := os.Stat(s.loadedFrom)
	if err != nil {
		return false
	}
	return !info.ModTime().After(s.loadedAt)
}

// Path returns the file the current catalog was loaded from, if any.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedFrom
}
