package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Version is the catalog schema version written to serialized catalogs.
const Version = 1

// ErrMalformed marks an on-disk catalog that could not be decoded.
var ErrMalformed = errors.New("malformed catalog")

// Catalog is the full extraction output: all story records plus provenance
// metadata. A catalog is created fresh per extraction run and never mutated
// incrementally; a re-run replaces it wholesale.
type Catalog struct {
	Version       int                    `json:"version"`
	GeneratedAt   time.Time              `json:"generatedAt"`
	ExtractedFrom Provenance             `json:"extractedFrom"`
	TotalStories  int                    `json:"totalStories"`
	Stories       map[string]StoryRecord `json:"stories"`
}

// New creates an empty catalog stamped with the given provenance.
func New(from Provenance) *Catalog {
	return &Catalog{
		Version:       Version,
		GeneratedAt:   time.Now().UTC(),
		ExtractedFrom: from,
		Stories:       make(map[string]StoryRecord),
	}
}

// Put adds a record, overwriting any record with the same id
// (last-write-wins) and keeping TotalStories consistent.
func (c *Catalog) Put(rec StoryRecord) {
	c.Stories[rec.ID] = rec
	c.TotalStories = len(c.Stories)
}

// Empty reports whether the catalog holds no stories.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.Stories) == 0
}

// Validate checks internal consistency. Returns a slice of errors
// (empty if valid).
func (c *Catalog) Validate() []error {
	var errs []error
	if c.Version == 0 {
		errs = append(errs, fmt.Errorf("catalog version is required"))
	}
	if c.TotalStories != len(c.Stories) {
		errs = append(errs, fmt.Errorf("totalStories %d does not match story count %d", c.TotalStories, len(c.Stories)))
	}
	for id, rec := range c.Stories {
		if rec.ID != id {
			errs = append(errs, fmt.Errorf("story %q: record id %q does not match map key", id, rec.ID))
		}
		if rec.Args == nil {
			errs = append(errs, fmt.Errorf("story %q: args must be a mapping, not absent", id))
		}
		if rec.ArgTypes == nil {
			errs = append(errs, fmt.Errorf("story %q: argTypes must be a mapping, not absent", id))
		}
		if rec.Tags == nil {
			errs = append(errs, fmt.Errorf("story %q: tags must be an array, not absent", id))
		}
	}
	return errs
}

// Save writes the catalog as JSON via a temp file and rename, so readers
// never observe a partially written snapshot.
func (c *Catalog) Save(path string) error {
	c.TotalStories = len(c.Stories)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}

// Load reads a catalog from path. Decode failures are reported as
// ErrMalformed so callers can distinguish a corrupt snapshot from I/O errors.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if c.Stories == nil {
		c.Stories = make(map[string]StoryRecord)
	}
	c.TotalStories = len(c.Stories)
	return &c, nil
}

// LoadOrNil reads a catalog from path, treating a missing or malformed file
// as absent data rather than an error.
func LoadOrNil(path string) *Catalog {
	c, err := Load(path)
	if err != nil {
		return nil
	}
	return c
}
