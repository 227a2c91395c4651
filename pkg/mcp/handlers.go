package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/storydex/pkg/catalog"
)

// storySummary is the compact shape returned by list and search tools; the
// full record is reserved for get_story to keep list responses small.
type storySummary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
}

func summarize(records []catalog.StoryRecord) []storySummary {
	out := make([]storySummary, 0, len(records))
	for _, rec := range records {
		out = append(out, storySummary{
			ID:    rec.ID,
			Title: rec.Title,
			Name:  rec.Name,
			Tags:  rec.Tags,
		})
	}
	return out
}

func (s *Server) handleListStories(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	query := req.GetString("query", "")

	stories := s.query.ListStories(title, query)
	return jsonResult(map[string]any{
		"totalStories": len(stories),
		"stories":      summarize(stories),
	})
}

func (s *Server) handleGetStory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	rec, ok := s.query.GetStory(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("story not found: %s", id)), nil
	}
	return jsonResult(rec)
}

func (s *Server) handleSearchStories(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	stories := s.query.Search(query)
	return jsonResult(map[string]any{
		"totalStories": len(stories),
		"stories":      summarize(stories),
	})
}

func (s *Server) handleListTitles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	titles := s.query.Titles()
	if titles == nil {
		titles = []string{}
	}
	return jsonResult(map[string]any{"titles": titles})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
