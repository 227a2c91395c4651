package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id, title, name string) StoryRecord {
	return StoryRecord{
		ID:          id,
		Title:       title,
		Kind:        title,
		Name:        name,
		Story:       name,
		Tags:        []string{},
		Args:        map[string]any{},
		InitialArgs: map[string]any{},
		ArgTypes:    map[string]ArgType{},
		Actions:     map[string]Action{},
	}
}

func TestCatalog_PutLastWriteWins(t *testing.T) {
	c := New(ProvenanceSource)

	first := testRecord("components-button--primary", "Components/Button", "Primary")
	first.Component = "OldButton"
	c.Put(first)

	second := testRecord("components-button--primary", "Components/Button", "Primary")
	second.Component = "NewButton"
	c.Put(second)

	assert.Equal(t, 1, c.TotalStories)
	assert.Equal(t, "NewButton", c.Stories["components-button--primary"].Component)
}

func TestCatalog_TotalStoriesTracksCount(t *testing.T) {
	c := New(ProvenanceSource)
	assert.True(t, c.Empty())
	assert.Equal(t, 0, c.TotalStories)

	c.Put(testRecord("a--one", "A", "One"))
	c.Put(testRecord("a--two", "A", "Two"))

	assert.False(t, c.Empty())
	assert.Equal(t, 2, c.TotalStories)
	assert.Empty(t, c.Validate())
}

func TestCatalog_Validate(t *testing.T) {
	c := New(ProvenanceSource)
	c.Stories["mismatched"] = StoryRecord{ID: "other"}
	c.TotalStories = 5

	errs := c.Validate()
	assert.NotEmpty(t, errs)
}

func TestCatalog_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "catalog.json")

	c := New(ProvenanceSource)
	rec := testRecord("forms-input--empty", "Forms/Input", "Empty")
	rec.Args["placeholder"] = "Type here"
	c.Put(rec)

	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Version, loaded.Version)
	assert.Equal(t, ProvenanceSource, loaded.ExtractedFrom)
	assert.Equal(t, 1, loaded.TotalStories)
	assert.Equal(t, "Type here", loaded.Stories["forms-input--empty"].Args["placeholder"])
}

func TestCatalog_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	c := New(ProvenanceSource)
	require.NoError(t, c.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "catalog.json", entries[0].Name())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)

	assert.Nil(t, LoadOrNil(path))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
	assert.True(t, os.IsNotExist(err))
}
