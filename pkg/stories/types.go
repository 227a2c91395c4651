// Package stories parses Storybook-style CSF (Component Story Format) source
// files into story records. Extraction is static and best-effort: it pattern
// matches syntax shapes and never evaluates code.
package stories

// FileStories is the raw intermediate representation of one parsed story
// file: the default-export meta object plus every candidate story found in
// the file's named exports.
type FileStories struct {
	// Path is the file path handed to ParseFile.
	Path string
	// Source is the raw file content.
	Source []byte

	// HasMeta reports whether a default-export object literal was found.
	HasMeta bool
	Meta    Meta

	// Stories holds candidate stories in order of appearance.
	Stories []Story
}

// Meta is the default-exported configuration object of a story file,
// describing the component group.
type Meta struct {
	Title      string
	Component  string
	Tags       []string
	Args       map[string]any
	ArgTypes   map[string]any
	Parameters map[string]any
}

// Story is one candidate story: a named export plus any `X.args` /
// `X.storyName` assignments or CSF3 object fields attributed to it.
type Story struct {
	// ExportName is the export identifier the story is keyed by.
	ExportName string
	// Name is the display-name override (storyName assignment or CSF3
	// `name` field); empty when the export identifier should be used.
	Name string

	Args       map[string]any
	ArgTypes   map[string]any
	Parameters map[string]any
}
