package catalog

import (
	"sort"
	"strings"
)

// QueryService provides read-only query methods over a catalog store.
type QueryService struct {
	store *Store
}

// NewQueryService creates a QueryService backed by the given store.
func NewQueryService(store *Store) *QueryService {
	return &QueryService{store: store}
}

// ListStories returns stories filtered by title prefix and/or keyword,
// sorted by id. Both filters are optional (pass "" to skip); when both are
// provided they combine with AND logic. The keyword matches
// case-insensitively against id, title, name and docs description.
func (q *QueryService) ListStories(titlePrefix, keyword string) []StoryRecord {
	cat, ok := q.store.Get()
	if !ok {
		return nil
	}

	titlePrefix = strings.ToLower(titlePrefix)
	keyword = strings.ToLower(keyword)

	result := make([]StoryRecord, 0, len(cat.Stories))
	for _, rec := range cat.Stories {
		if titlePrefix != "" && !strings.HasPrefix(strings.ToLower(rec.Title), titlePrefix) {
			continue
		}
		if keyword != "" && !recordMatches(rec, keyword) {
			continue
		}
		result = append(result, rec)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetStory looks up a story by id. The bool reports whether it was found.
func (q *QueryService) GetStory(id string) (StoryRecord, bool) {
	cat, ok := q.store.Get()
	if !ok {
		return StoryRecord{}, false
	}
	rec, ok := cat.Stories[id]
	return rec, ok
}

// Search returns stories matching the query across id, title, name and
// docs description, sorted by id.
func (q *QueryService) Search(query string) []StoryRecord {
	return q.ListStories("", query)
}

// Titles returns the distinct story titles in the catalog, sorted.
func (q *QueryService) Titles() []string {
	cat, ok := q.store.Get()
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var titles []string
	for _, rec := range cat.Stories {
		if !seen[rec.Title] {
			seen[rec.Title] = true
			titles = append(titles, rec.Title)
		}
	}
	sort.Strings(titles)
	return titles
}

func recordMatches(rec StoryRecord, keyword string) bool {
	return strings.Contains(strings.ToLower(rec.ID), keyword) ||
		strings.Contains(strings.ToLower(rec.Title), keyword) ||
		strings.Contains(strings.ToLower(rec.Name), keyword) ||
		strings.Contains(strings.ToLower(rec.Docs.Description), keyword)
}
