package extract

import (
	"context"
	"log/slog"

	"github.com/gnana997/storydex/pkg/catalog"
)

// Selector tries strategies in priority order and picks the first that
// yields a non-empty catalog.
type Selector struct {
	strategies []Strategy
	caps       Capabilities
	opts       Options
	logger     *slog.Logger
}

// NewSelector builds the default strategy chain for the given options:
// source parsing, then the built artifact, then live deep introspection,
// then the live basic index.
func NewSelector(opts Options, caps Capabilities) *Selector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Selector{
		strategies: []Strategy{
			NewSourceStrategy(opts),
			NewArtifactStrategy(opts),
			NewLiveStrategy(opts, true),
			NewLiveStrategy(opts, false),
		},
		caps:   caps,
		opts:   opts,
		logger: logger,
	}
}

// NewSelectorWith builds a selector over an explicit strategy list.
// Used by tests and callers with custom chains.
func NewSelectorWith(opts Options, caps Capabilities, strategies ...Strategy) *Selector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{strategies: strategies, caps: caps, opts: opts, logger: logger}
}

// Run executes the strategy chain. Inapplicable strategies are skipped;
// failing or empty ones are logged and fallen through. When every strategy
// comes up empty the result carries NoData=true with a nil error.
func (s *Selector) Run(ctx context.Context) (*Result, error) {
	result := s.firstNonEmpty(ctx, s.strategies)

	if result == nil {
		empty := catalog.New(catalog.ProvenanceNone)
		return &Result{Catalog: empty, Provenance: catalog.ProvenanceNone, NoData: true}, nil
	}

	// A basic extraction can be enhanced by retrying deep live
	// introspection; the richer catalog wins only if it produced data.
	if s.opts.Enhance && basicProvenance(result.Provenance) {
		if enhanced := s.firstNonEmpty(ctx, []Strategy{NewLiveStrategy(s.opts, true)}); enhanced != nil {
			s.logger.Info("enhanced catalog via live introspection",
				"stories", enhanced.Catalog.TotalStories)
			return enhanced, nil
		}
	}

	return result, nil
}

func (s *Selector) firstNonEmpty(ctx context.Context, strategies []Strategy) *Result {
	for _, strat := range strategies {
		name := strat.Provenance()

		if !strat.Applicable(ctx, s.caps) {
			s.logger.Debug("strategy not applicable", "strategy", name)
			continue
		}

		cat, err := strat.Extract(ctx)
		if err != nil {
			s.logger.Warn("strategy failed, falling through", "strategy", name, "error", err)
			continue
		}
		if cat.Empty() {
			s.logger.Debug("strategy produced no stories", "strategy", name)
			continue
		}

		s.logger.Info("extraction complete", "strategy", name, "stories", cat.TotalStories)
		return &Result{Catalog: cat, Provenance: cat.ExtractedFrom}
	}
	return nil
}

func basicProvenance(p catalog.Provenance) bool {
	return p == catalog.ProvenanceArtifact || p == catalog.ProvenanceLiveBasic
}

// Close releases resources held by strategies that own any.
func (s *Selector) Close() {
	for _, strat := range s.strategies {
		if c, ok := strat.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
