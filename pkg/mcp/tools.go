package mcp

import "github.com/mark3labs/mcp-go/mcp"

func listStoriesTool() mcp.Tool {
	return mcp.NewTool("list_stories",
		mcp.WithDescription("List stories in the catalog, optionally filtered by title prefix and/or keyword. Returns id, title, name and tags per story."),
		mcp.WithString("title",
			mcp.Description("Filter to stories whose title starts with this prefix (case-insensitive)"),
		),
		mcp.WithString("query",
			mcp.Description("Keyword matched against id, title, name and docs description"),
		),
	)
}

func getStoryTool() mcp.Tool {
	return mcp.NewTool("get_story",
		mcp.WithDescription("Get the full record for one story: args, argTypes, actions, tags, docs and import path."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Story id, e.g. components-button--primary"),
		),
	)
}

func searchStoriesTool() mcp.Tool {
	return mcp.NewTool("search_stories",
		mcp.WithDescription("Search stories by keyword across id, title, name and docs description."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search keyword"),
		),
	)
}

func listTitlesTool() mcp.Tool {
	return mcp.NewTool("list_titles",
		mcp.WithDescription("List the distinct story titles (component groupings) in the catalog."),
	)
}
