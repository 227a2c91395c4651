package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/storydex/pkg/catalog"
)

// fakeStrategy scripts one strategy outcome for selector tests.
type fakeStrategy struct {
	provenance catalog.Provenance
	applicable bool
	cat        *catalog.Catalog
	err        error
	calls      int
}

func (f *fakeStrategy) Provenance() catalog.Provenance { return f.provenance }

func (f *fakeStrategy) Applicable(context.Context, Capabilities) bool { return f.applicable }

func (f *fakeStrategy) Extract(context.Context) (*catalog.Catalog, error) {
	f.calls++
	return f.cat, f.err
}

func populated(from catalog.Provenance, ids ...string) *catalog.Catalog {
	c := catalog.New(from)
	for _, id := range ids {
		c.Put(catalog.StoryRecord{
			ID:       id,
			Tags:     []string{},
			Args:     map[string]any{},
			ArgTypes: map[string]catalog.ArgType{},
		})
	}
	return c
}

func TestSelector_FirstApplicableNonEmptyWins(t *testing.T) {
	source := &fakeStrategy{
		provenance: catalog.ProvenanceSource,
		applicable: true,
		cat:        populated(catalog.ProvenanceSource, "a--one"),
	}
	artifact := &fakeStrategy{
		provenance: catalog.ProvenanceArtifact,
		applicable: true,
		cat:        populated(catalog.ProvenanceArtifact, "a--one"),
	}

	sel := NewSelectorWith(Options{}, Capabilities{}, source, artifact)
	result, err := sel.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalog.ProvenanceSource, result.Provenance)
	assert.False(t, result.NoData)
	assert.Equal(t, 0, artifact.calls, "later strategies must not run")
}

func TestSelector_FallsThroughErrorsAndEmpties(t *testing.T) {
	failing := &fakeStrategy{
		provenance: catalog.ProvenanceSource,
		applicable: true,
		err:        errors.New("parse blew up"),
	}
	empty := &fakeStrategy{
		provenance: catalog.ProvenanceArtifact,
		applicable: true,
		cat:        catalog.New(catalog.ProvenanceArtifact),
	}
	inapplicable := &fakeStrategy{
		provenance: catalog.ProvenanceLive,
		applicable: false,
	}
	winning := &fakeStrategy{
		provenance: catalog.ProvenanceLiveBasic,
		applicable: true,
		cat:        populated(catalog.ProvenanceLiveBasic, "b--two"),
	}

	sel := NewSelectorWith(Options{}, Capabilities{}, failing, empty, inapplicable, winning)
	result, err := sel.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalog.ProvenanceLiveBasic, result.Provenance)
	assert.Equal(t, 0, inapplicable.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestSelector_AllFailIsNoDataNotError(t *testing.T) {
	failing := &fakeStrategy{
		provenance: catalog.ProvenanceSource,
		applicable: true,
		err:        errors.New("nope"),
	}
	inapplicable := &fakeStrategy{
		provenance: catalog.ProvenanceLive,
		applicable: false,
	}

	sel := NewSelectorWith(Options{}, Capabilities{}, failing, inapplicable)
	result, err := sel.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, result.NoData)
	assert.Equal(t, catalog.ProvenanceNone, result.Provenance)
	require.NotNil(t, result.Catalog)
	assert.True(t, result.Catalog.Empty())
}

func TestSelector_ParserCapabilityOffSkipsSource(t *testing.T) {
	opts := Options{Root: t.TempDir()}
	source := NewSourceStrategy(opts)
	defer source.Close()

	assert.True(t, source.Applicable(context.Background(), Capabilities{Parser: true}))
	assert.False(t, source.Applicable(context.Background(), Capabilities{Parser: false}))
}

func TestSelector_DeepLiveNeedsBrowser(t *testing.T) {
	deep := NewLiveStrategy(Options{}, true)
	basic := NewLiveStrategy(Options{}, false)

	assert.False(t, deep.Applicable(context.Background(), Capabilities{Browser: false}))
	assert.True(t, deep.Applicable(context.Background(), Capabilities{Browser: true}))
	assert.True(t, basic.Applicable(context.Background(), Capabilities{Browser: false}))
}
