package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gnana997/storydex/pkg/catalog"
)

const (
	defaultStoryTimeout = 8 * time.Second
	defaultRunTimeout   = 3 * time.Minute
	indexFetchTimeout   = 5 * time.Second
)

// StoryDetails is the per-story payload read out of a running dev server's
// preview runtime.
type StoryDetails struct {
	Args       map[string]any `json:"args"`
	ArgTypes   map[string]any `json:"argTypes"`
	Parameters map[string]any `json:"parameters"`
}

// introspector reads story details from a live preview page. Satisfied by
// the headless-browser implementation; tests substitute a fake.
type introspector interface {
	StoryDetails(ctx context.Context, baseURL, storyID string) (*StoryDetails, error)
	Close()
}

// LiveStrategy extracts from a running dev server. In deep mode it drives a
// headless browser through every story to recover runtime args and argTypes;
// in basic mode it only wraps the server's index endpoint.
type LiveStrategy struct {
	opts   Options
	deep   bool
	client *http.Client
	// newIntrospector is swapped out by tests.
	newIntrospector func(logger *slog.Logger) (introspector, error)
	logger          *slog.Logger
}

// NewLiveStrategy creates a live-server strategy. deep selects per-story
// browser introspection over index-only wrapping.
func NewLiveStrategy(opts Options, deep bool) *LiveStrategy {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveStrategy{
		opts:            opts,
		deep:            deep,
		client:          &http.Client{Timeout: indexFetchTimeout},
		newIntrospector: newBrowserIntrospector,
		logger:          logger,
	}
}

// Provenance implements Strategy.
func (l *LiveStrategy) Provenance() catalog.Provenance {
	if l.deep {
		return catalog.ProvenanceLive
	}
	return catalog.ProvenanceLiveBasic
}

// Applicable implements Strategy. Deep introspection additionally needs a
// browser binary.
func (l *LiveStrategy) Applicable(_ context.Context, caps Capabilities) bool {
	if l.deep && !caps.Browser {
		return false
	}
	return true
}

// Extract locates the dev server, fetches its story index, and in deep mode
// introspects each story in the browser. A story whose introspection fails
// or times out degrades to its basic index entry rather than aborting the
// run.
func (l *LiveStrategy) Extract(ctx context.Context) (*catalog.Catalog, error) {
	runTimeout := l.opts.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	baseURL, err := l.resolveBaseURL(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := l.fetchIndex(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	if !l.deep {
		cat := catalog.New(catalog.ProvenanceLiveBasic)
		for _, entry := range entries {
			if entry.Type == "docs" {
				continue
			}
			cat.Put(minimalRecord(entry))
		}
		return cat, nil
	}

	return l.deepExtract(ctx, baseURL, entries)
}

// resolveBaseURL prefers an explicit server URL, then an explicit port, then
// port autodetection.
func (l *LiveStrategy) resolveBaseURL(ctx context.Context) (string, error) {
	if l.opts.ServerURL != "" {
		return strings.TrimRight(l.opts.ServerURL, "/"), nil
	}
	if l.opts.Port > 0 {
		return fmt.Sprintf("http://localhost:%d", l.opts.Port), nil
	}

	port, ok := DetectPort(ctx, "localhost", nil, l.logger)
	if !ok {
		return "", fmt.Errorf("no running dev server found on common ports")
	}
	return fmt.Sprintf("http://localhost:%d", port), nil
}

// fetchIndex reads the server's story index, preferring the modern endpoint
// and falling back to the legacy one.
func (l *LiveStrategy) fetchIndex(ctx context.Context, baseURL string) (map[string]indexEntry, error) {
	var lastErr error
	for _, endpoint := range []string{"/index.json", "/stories.json"} {
		data, err := l.fetchJSON(ctx, baseURL+endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		entries, err := decodeStoryIndex(data)
		if err != nil {
			lastErr = err
			continue
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("server returned an empty story index")
	}
	return nil, fmt.Errorf("failed to fetch story index from %s: %w", baseURL, lastErr)
}

func (l *LiveStrategy) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// deepExtract walks every story through the browser. Introspection failures
// are per-story: the affected record keeps its basic index data.
func (l *LiveStrategy) deepExtract(ctx context.Context, baseURL string, entries map[string]indexEntry) (*catalog.Catalog, error) {
	intro, err := l.newIntrospector(l.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer intro.Close()

	storyTimeout := l.opts.StoryTimeout
	if storyTimeout <= 0 {
		storyTimeout = defaultStoryTimeout
	}

	cat := catalog.New(catalog.ProvenanceLive)
	degraded := 0
	for _, entry := range entries {
		if entry.Type == "docs" {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rec := minimalRecord(entry)

		storyCtx, cancel := context.WithTimeout(ctx, storyTimeout)
		details, err := intro.StoryDetails(storyCtx, baseURL, entry.ID)
		cancel()
		if err != nil {
			l.logger.Warn("story introspection failed, keeping index entry",
				"story", entry.ID, "error", err)
			degraded++
		} else {
			enrichRecord(&rec, details)
		}
		cat.Put(rec)
	}

	if degraded > 0 {
		l.logger.Info("deep introspection partially degraded",
			"degraded", degraded, "total", cat.TotalStories)
	}
	return cat, nil
}

// enrichRecord folds runtime details into a basic record.
func enrichRecord(rec *catalog.StoryRecord, details *StoryDetails) {
	if details == nil {
		return
	}
	for k, v := range details.Args {
		rec.Args[k] = v
		rec.InitialArgs[k] = v
	}
	for name, raw := range details.ArgTypes {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rec.ArgTypes[name] = argTypeFromRuntime(obj)
	}
	for name, at := range rec.ArgTypes {
		if at.Action != "" || (at.Control != nil && at.Control.Type == "action") {
			rec.Actions[name] = catalog.Action{Action: name}
		}
	}
}

// argTypeFromRuntime converts one runtime argType object, which mirrors the
// shape produced by static parsing.
func argTypeFromRuntime(obj map[string]any) catalog.ArgType {
	var at catalog.ArgType

	switch control := obj["control"].(type) {
	case map[string]any:
		if t, ok := control["type"].(string); ok {
			at.Control = &catalog.Control{Type: t}
		}
		if opts, ok := control["options"].([]any); ok {
			at.Options = opts
		}
	case string:
		at.Control = &catalog.Control{Type: control}
	}

	if opts, ok := obj["options"].([]any); ok {
		at.Options = opts
	}
	if desc, ok := obj["description"].(string); ok {
		at.Description = desc
	}
	if action, ok := obj["action"].(string); ok {
		at.Action = action
	}
	if table, ok := obj["table"].(map[string]any); ok {
		if cat, ok := table["category"].(string); ok {
			at.Category = cat
		}
	}
	return at
}
