// Package extract orchestrates catalog extraction across a prioritized
// chain of strategies: story-source parsing, a built index artifact, and
// live dev-server introspection.
package extract

import (
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/gnana997/storydex/pkg/catalog"
)

// Options are the configuration knobs consumed by the extraction core.
type Options struct {
	// Root is the project source tree to scan for story files.
	Root string

	// ServerURL targets a running dev server. When empty and Port is zero,
	// the live strategies probe common ports.
	ServerURL string
	// Port targets a dev server on localhost when ServerURL is empty.
	Port int

	// ArtifactPath overrides the built index location. Defaults to
	// <root>/storybook-static/index.json.
	ArtifactPath string

	// StoryTimeout bounds each per-story browser introspection.
	StoryTimeout time.Duration
	// RunTimeout bounds a whole live-introspection run.
	RunTimeout time.Duration

	// Enhance retries a basic (artifact or index-only) extraction with
	// deep live introspection afterwards.
	Enhance bool

	// CacheSize bounds the per-file extraction cache. Zero uses a default.
	CacheSize int

	Logger *slog.Logger
}

// Capabilities are the optional-dependency flags resolved once at startup.
// The selector consults these instead of attempting an operation and
// catching the failure.
type Capabilities struct {
	// Parser reports whether static source parsing is available. Always
	// true in-process; tests force it off to exercise fallbacks.
	Parser bool
	// Browser reports whether a headless browser binary is available for
	// deep live introspection.
	Browser bool
}

// DetectCapabilities resolves capability flags from the environment.
func DetectCapabilities() Capabilities {
	return Capabilities{
		Parser:  true,
		Browser: browserAvailable(),
	}
}

func browserAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// Result is the outcome of an extraction run. NoData is the explicit
// "no strategy produced any story" signal; it is a result, not an error,
// leaving the caller to decide severity.
type Result struct {
	Catalog    *catalog.Catalog
	Provenance catalog.Provenance
	NoData     bool
}

// Strategy is one way of producing a catalog. An empty catalog or an error
// both mean "fall through to the next strategy".
type Strategy interface {
	// Provenance identifies the strategy in catalog metadata and logs.
	Provenance() catalog.Provenance
	// Applicable reports whether the strategy can run given the resolved
	// capabilities and configuration.
	Applicable(ctx context.Context, caps Capabilities) bool
	// Extract attempts to produce a catalog.
	Extract(ctx context.Context) (*catalog.Catalog, error)
}
