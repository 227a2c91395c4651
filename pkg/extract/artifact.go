package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/storydex/pkg/catalog"
)

// ArtifactStrategy reads a previously generated flat index file from a
// static build and wraps each entry into a minimal story record with empty
// args, argTypes and docs.
type ArtifactStrategy struct {
	path   string
	logger *slog.Logger
}

// NewArtifactStrategy creates the built-artifact strategy. When no explicit
// artifact path is configured, the conventional build output location under
// the root is used.
func NewArtifactStrategy(opts Options) *ArtifactStrategy {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := opts.ArtifactPath
	if path == "" && opts.Root != "" {
		path = filepath.Join(opts.Root, "storybook-static", "index.json")
	}
	return &ArtifactStrategy{path: path, logger: logger}
}

// Provenance implements Strategy.
func (a *ArtifactStrategy) Provenance() catalog.Provenance {
	return catalog.ProvenanceArtifact
}

// Applicable implements Strategy: the index file must exist on disk.
func (a *ArtifactStrategy) Applicable(_ context.Context, _ Capabilities) bool {
	if a.path == "" {
		return false
	}
	info, err := os.Stat(a.path)
	return err == nil && !info.IsDir()
}

// Extract reads and wraps the index entries.
func (a *ArtifactStrategy) Extract(_ context.Context) (*catalog.Catalog, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index artifact: %w", err)
	}

	entries, err := decodeStoryIndex(data)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(catalog.ProvenanceArtifact)
	for _, entry := range entries {
		// v4 indexes list docs pages alongside stories.
		if entry.Type == "docs" {
			continue
		}
		cat.Put(minimalRecord(entry))
	}
	a.logger.Debug("wrapped index artifact", "path", a.path, "stories", cat.TotalStories)
	return cat, nil
}

// indexEntry is one story in a basic index, covering both the v4 shape
// (title/name) and the legacy v3 shape (kind/story).
type indexEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Story      string   `json:"story"`
	ImportPath string   `json:"importPath"`
	Tags       []string `json:"tags"`
	Type       string   `json:"type"`
}

// storyIndex is the serialized index document: v4 uses `entries`, v3 used
// `stories`.
type storyIndex struct {
	V       int                   `json:"v"`
	Entries map[string]indexEntry `json:"entries"`
	Stories map[string]indexEntry `json:"stories"`
}

func decodeStoryIndex(data []byte) (map[string]indexEntry, error) {
	var idx storyIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("malformed story index: %w", err)
	}
	if len(idx.Entries) > 0 {
		return idx.Entries, nil
	}
	return idx.Stories, nil
}

// minimalRecord wraps a basic index entry into a StoryRecord with empty
// args/argTypes/docs, normalizing legacy field names.
func minimalRecord(entry indexEntry) catalog.StoryRecord {
	title := entry.Title
	if title == "" {
		title = entry.Kind
	}
	name := entry.Name
	if name == "" {
		name = entry.Story
	}

	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}

	return catalog.StoryRecord{
		ID:          entry.ID,
		Title:       title,
		Kind:        title,
		Name:        name,
		Story:       name,
		ImportPath:  entry.ImportPath,
		Tags:        tags,
		Args:        map[string]any{},
		InitialArgs: map[string]any{},
		ArgTypes:    map[string]catalog.ArgType{},
		Actions:     map[string]catalog.Action{},
	}
}
