package extract

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/storydex/pkg/catalog"
)

func indexServer(t *testing.T, endpoint, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != endpoint {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestLiveStrategy_BasicWrapsIndex(t *testing.T) {
	ts := indexServer(t, "/index.json", v4Index)

	strat := NewLiveStrategy(Options{ServerURL: ts.URL}, false)
	cat, err := strat.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalog.ProvenanceLiveBasic, cat.ExtractedFrom)
	assert.Equal(t, 1, cat.TotalStories)
	assert.Contains(t, cat.Stories, "components-button--primary")
}

func TestLiveStrategy_FallsBackToLegacyEndpoint(t *testing.T) {
	ts := indexServer(t, "/stories.json", v3Index)

	strat := NewLiveStrategy(Options{ServerURL: ts.URL}, false)
	cat, err := strat.Extract(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cat.Stories, "button--primary")
}

func TestLiveStrategy_NoServer(t *testing.T) {
	strat := NewLiveStrategy(Options{ServerURL: "http://127.0.0.1:1"}, false)
	_, err := strat.Extract(context.Background())
	assert.Error(t, err)
}

// fakeIntrospector scripts per-story introspection results.
type fakeIntrospector struct {
	details map[string]*StoryDetails
	closed  bool
}

func (f *fakeIntrospector) StoryDetails(_ context.Context, _ string, storyID string) (*StoryDetails, error) {
	d, ok := f.details[storyID]
	if !ok {
		return nil, errors.New("introspection timed out")
	}
	return d, nil
}

func (f *fakeIntrospector) Close() { f.closed = true }

func TestLiveStrategy_DeepEnrichesRecords(t *testing.T) {
	ts := indexServer(t, "/index.json", v4Index)

	fake := &fakeIntrospector{details: map[string]*StoryDetails{
		"components-button--primary": {
			Args: map[string]any{"label": "Click me"},
			ArgTypes: map[string]any{
				"variant": map[string]any{
					"control": map[string]any{"type": "select"},
					"options": []any{"solid", "ghost"},
				},
				"onClick": map[string]any{"action": "clicked"},
			},
		},
	}}

	strat := NewLiveStrategy(Options{ServerURL: ts.URL}, true)
	strat.newIntrospector = func(*slog.Logger) (introspector, error) { return fake, nil }

	cat, err := strat.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalog.ProvenanceLive, cat.ExtractedFrom)
	assert.True(t, fake.closed)

	rec := cat.Stories["components-button--primary"]
	assert.Equal(t, "Click me", rec.Args["label"])
	assert.Equal(t, "Click me", rec.InitialArgs["label"])
	assert.Equal(t, "select", rec.ArgTypes["variant"].Control.Type)
	assert.Equal(t, []any{"solid", "ghost"}, rec.ArgTypes["variant"].Options)
	assert.Contains(t, rec.Actions, "onClick")
}

func TestLiveStrategy_DeepDegradesPerStory(t *testing.T) {
	ts := indexServer(t, "/index.json", v4Index)

	// No scripted details: every introspection fails, records keep their
	// basic index data.
	fake := &fakeIntrospector{details: map[string]*StoryDetails{}}

	strat := NewLiveStrategy(Options{ServerURL: ts.URL}, true)
	strat.newIntrospector = func(*slog.Logger) (introspector, error) { return fake, nil }

	cat, err := strat.Extract(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, cat.TotalStories)
	rec := cat.Stories["components-button--primary"]
	assert.Equal(t, "Primary", rec.Name)
	assert.Empty(t, rec.Args)
}

func TestLiveStrategy_DeepBrowserStartFailure(t *testing.T) {
	ts := indexServer(t, "/index.json", v4Index)

	strat := NewLiveStrategy(Options{ServerURL: ts.URL}, true)
	strat.newIntrospector = func(*slog.Logger) (introspector, error) {
		return nil, errors.New("no chrome")
	}

	_, err := strat.Extract(context.Background())
	assert.Error(t, err)
}
