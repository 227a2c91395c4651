package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetBeforeReplace(t *testing.T) {
	s := NewStore()
	_, ok := s.Get()
	assert.False(t, ok)
	assert.False(t, s.Fresh())
}

func TestStore_ReplaceAndInvalidate(t *testing.T) {
	s := NewStore()
	c := New(ProvenanceSource)
	c.Put(testRecord("a--one", "A", "One"))

	s.Replace(c)
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, 1, got.TotalStories)
	assert.True(t, s.Fresh(), "store without a backing file is always fresh")

	s.Invalidate()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestStore_FreshTracksBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	c := New(ProvenanceSource)
	c.Put(testRecord("a--one", "A", "One"))
	require.NoError(t, c.Save(path))

	s := NewStore()
	loaded, err := Load(path)
	require.NoError(t, err)
	s.ReplaceFrom(loaded, path)
	assert.True(t, s.Fresh())
	assert.Equal(t, path, s.Path())

	// Rewriting the file with a newer mtime makes the store stale.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Save(path))
	assert.False(t, s.Fresh())
}

func TestQueryService_ListAndFilter(t *testing.T) {
	s := NewStore()
	c := New(ProvenanceSource)
	c.Put(testRecord("components-button--primary", "Components/Button", "Primary"))
	c.Put(testRecord("components-button--ghost", "Components/Button", "Ghost"))
	c.Put(testRecord("forms-input--empty", "Forms/Input", "Empty"))
	s.Replace(c)

	q := NewQueryService(s)

	all := q.ListStories("", "")
	require.Len(t, all, 3)
	assert.Equal(t, "components-button--ghost", all[0].ID, "results sorted by id")

	buttons := q.ListStories("components", "")
	assert.Len(t, buttons, 2)

	ghosts := q.Search("ghost")
	require.Len(t, ghosts, 1)
	assert.Equal(t, "Ghost", ghosts[0].Name)

	both := q.ListStories("forms", "ghost")
	assert.Empty(t, both, "filters combine with AND")
}

func TestQueryService_GetStory(t *testing.T) {
	s := NewStore()
	c := New(ProvenanceSource)
	c.Put(testRecord("a--one", "A", "One"))
	s.Replace(c)

	q := NewQueryService(s)

	rec, ok := q.GetStory("a--one")
	require.True(t, ok)
	assert.Equal(t, "One", rec.Name)

	_, ok = q.GetStory("a--missing")
	assert.False(t, ok)
}

func TestQueryService_Titles(t *testing.T) {
	s := NewStore()
	c := New(ProvenanceSource)
	c.Put(testRecord("b--x", "B", "X"))
	c.Put(testRecord("a--y", "A", "Y"))
	c.Put(testRecord("a--z", "A", "Z"))
	s.Replace(c)

	q := NewQueryService(s)
	assert.Equal(t, []string{"A", "B"}, q.Titles())
}

func TestQueryService_EmptyStore(t *testing.T) {
	q := NewQueryService(NewStore())
	assert.Nil(t, q.ListStories("", ""))
	_, ok := q.GetStory("anything")
	assert.False(t, ok)
	assert.Nil(t, q.Titles())
}
