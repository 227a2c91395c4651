package stories

import (
	"path/filepath"
	"strings"

	"github.com/gnana997/storydex/pkg/catalog"
)

// BuildRecords combines a file's meta object with each candidate story to
// produce canonical story records. importPath should be the story file path
// relative to the project root; it is carried into each record for
// traceability and re-extraction.
func BuildRecords(fs *FileStories, importPath string) []catalog.StoryRecord {
	title := recordTitle(fs, importPath)
	metaArgTypes := argTypesFromRaw(fs.Meta.ArgTypes)

	records := make([]catalog.StoryRecord, 0, len(fs.Stories))
	for _, story := range fs.Stories {
		name := story.Name
		if name == "" {
			name = story.ExportName
		}

		args := mergeArgs(fs.Meta.Args, story.Args)
		argTypes := mergeArgTypes(metaArgTypes, argTypesFromRaw(story.ArgTypes))

		rec := catalog.StoryRecord{
			ID:          StoryID(title, name),
			Title:       title,
			Kind:        title,
			Name:        name,
			Story:       name,
			Component:   fs.Meta.Component,
			ImportPath:  importPath,
			Tags:        copyTags(fs.Meta.Tags),
			Args:        args,
			InitialArgs: copyArgs(args),
			ArgTypes:    argTypes,
			Actions:     computeActions(args, argTypes),
			Docs: catalog.Docs{
				Description: docsDescription(story.Parameters, fs.Meta.Parameters),
				SourceCode:  digString(fs.Meta.Parameters, "docs", "source", "code"),
			},
			Source: string(fs.Source),
		}
		records = append(records, rec)
	}
	return records
}

// StoryID derives the deterministic story id from title and story name.
func StoryID(title, name string) string {
	return Slug(title) + "--" + Slug(name)
}

// Slug normalizes a human-readable label into an identifier-safe string:
// lowercase, whitespace and path separators become hyphens, everything
// outside [a-z0-9-] is stripped, and hyphen runs collapse.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ' || r == '\t' || r == '/' || r == '\\' || r == '-':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// recordTitle resolves the grouping title: meta title, then component name,
// then the file's base name with story suffixes stripped.
func recordTitle(fs *FileStories, importPath string) string {
	if fs.Meta.Title != "" {
		return fs.Meta.Title
	}
	if fs.Meta.Component != "" {
		return fs.Meta.Component
	}
	base := filepath.Base(importPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, ".stories")
	base = strings.TrimSuffix(base, ".story")
	return base
}

// computeActions derives the actions mapping: arg names with the `on`
// prefix, args whose value is the function sentinel, and argTypes entries
// explicitly flagged as actions.
func computeActions(args map[string]any, argTypes map[string]catalog.ArgType) map[string]catalog.Action {
	actions := make(map[string]catalog.Action)

	for name, value := range args {
		if strings.HasPrefix(name, "on") || value == SentinelFunction {
			actions[name] = catalog.Action{Action: name}
		}
	}
	for name, at := range argTypes {
		switch {
		case at.Action != "":
			actions[name] = catalog.Action{Action: at.Action}
		case at.Control != nil && at.Control.Type == "action":
			actions[name] = catalog.Action{Action: name}
		}
	}
	return actions
}

// argTypesFromRaw converts a normalized argTypes object into typed
// descriptors. Entries that are not objects are skipped.
func argTypesFromRaw(raw map[string]any) map[string]catalog.ArgType {
	result := make(map[string]catalog.ArgType, len(raw))
	for name, v := range raw {
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}

		at := catalog.ArgType{}
		switch control := fields["control"].(type) {
		case map[string]any:
			if t, ok := control["type"].(string); ok {
				at.Control = &catalog.Control{Type: t}
			}
		case string:
			// Shorthand: control: "select".
			at.Control = &catalog.Control{Type: control}
		}
		if options, ok := fields["options"].([]any); ok {
			at.Options = options
		}
		if desc, ok := fields["description"].(string); ok {
			at.Description = desc
		}
		if action, ok := fields["action"].(string); ok {
			at.Action = action
		}
		at.Category = digString(fields, "table", "category")

		result[name] = at
	}
	return result
}

func mergeArgs(meta, story map[string]any) map[string]any {
	merged := make(map[string]any, len(meta)+len(story))
	for k, v := range meta {
		merged[k] = v
	}
	for k, v := range story {
		merged[k] = v
	}
	return merged
}

func mergeArgTypes(meta, story map[string]catalog.ArgType) map[string]catalog.ArgType {
	merged := make(map[string]catalog.ArgType, len(meta)+len(story))
	for k, v := range meta {
		merged[k] = v
	}
	for k, v := range story {
		merged[k] = v
	}
	return merged
}

func copyArgs(args map[string]any) map[string]any {
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	return copied
}

func copyTags(tags []string) []string {
	copied := make([]string, len(tags))
	copy(copied, tags)
	return copied
}

// docsDescription prefers a story-level description, falling back to the
// component-level one, defaulting to empty.
func docsDescription(storyParams, metaParams map[string]any) string {
	if s := digString(storyParams, "docs", "description", "story"); s != "" {
		return s
	}
	if s := digString(storyParams, "description"); s != "" {
		return s
	}
	if s := digString(metaParams, "docs", "description", "component"); s != "" {
		return s
	}
	return digString(metaParams, "description")
}

// digString walks nested maps by key, returning "" when any level is
// missing or not a string at the leaf.
func digString(m map[string]any, keys ...string) string {
	var current any = m
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = obj[key]
	}
	s, _ := current.(string)
	return s
}
