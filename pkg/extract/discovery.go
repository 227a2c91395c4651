package extract

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Story file naming conventions and the directories never worth walking.
var (
	storyIncludes = []string{
		"**/*.stories.ts",
		"**/*.stories.tsx",
		"**/*.stories.js",
		"**/*.stories.jsx",
		"**/*.stories.mjs",
		"**/*.story.ts",
		"**/*.story.tsx",
		"**/*.story.js",
		"**/*.story.jsx",
	}
	storyExcludes = []string{
		"node_modules/**",
		".git/**",
		"dist/**",
		"build/**",
		"storybook-static/**",
		".next/**",
		"coverage/**",
		"out/**",
	}
)

// DiscoverStoryFiles walks rootDir collecting files matching the story
// naming conventions. Returns a sorted slice of absolute paths so
// last-write-wins merging is deterministic across runs.
func DiscoverStoryFiles(rootDir string) ([]string, error) {
	for _, pattern := range append(append([]string{}, storyIncludes...), storyExcludes...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Keep walking past unreadable entries.
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range storyExcludes {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		if IsStoryFile(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// IsStoryFile reports whether path matches the story naming conventions.
func IsStoryFile(path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range storyIncludes {
		if matched, _ := doublestar.PathMatch(pattern, path); matched {
			return true
		}
	}
	return false
}
