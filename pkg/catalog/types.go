// Package catalog defines the story catalog data model and the store that
// publishes it to readers.
package catalog

// StoryRecord is one exported story: a named example/configuration of a
// UI component.
type StoryRecord struct {
	// ID is derived deterministically from (title, story name) and is
	// unique within a catalog.
	ID string `json:"id"`

	// Title is the logical grouping path, e.g. "Components/Button".
	Title string `json:"title"`
	// Kind is a legacy alias mirroring Title.
	Kind string `json:"kind"`

	// Name is the display name (per-story override or export identifier).
	Name string `json:"name"`
	// Story is a legacy alias mirroring Name.
	Story string `json:"story"`

	// Component names the underlying component, when known.
	Component string `json:"component,omitempty"`

	// ImportPath is the story file path relative to the project root.
	ImportPath string `json:"importPath"`

	// Tags holds free-form labels inherited from the meta object.
	// Always non-nil.
	Tags []string `json:"tags"`

	// Args maps prop name to its normalized value. Function and JSX values
	// carry the sentinel strings "[Function]" and "[JSX Element]".
	// Always non-nil.
	Args map[string]any `json:"args"`
	// InitialArgs preserves the args as first extracted.
	InitialArgs map[string]any `json:"initialArgs"`

	// ArgTypes maps prop name to its control/metadata descriptor.
	// Always non-nil.
	ArgTypes map[string]ArgType `json:"argTypes"`

	// Actions maps event-handler-looking prop names to action descriptors.
	Actions map[string]Action `json:"actions"`

	// Docs holds textual documentation harvested from meta parameters.
	Docs Docs `json:"docs"`

	// Source is the raw source text of the story file.
	Source string `json:"source,omitempty"`
}

// ArgType describes the control metadata for one prop.
type ArgType struct {
	Control     *Control `json:"control,omitempty"`
	Options     []any    `json:"options,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Action      string   `json:"action,omitempty"`
}

// Control describes the control kind for a prop (select, boolean, text, ...).
type Control struct {
	Type string `json:"type,omitempty"`
}

// Action describes an event-handler prop surfaced in the actions panel.
type Action struct {
	Action string `json:"action"`
}

// Docs holds story documentation fields.
type Docs struct {
	Description string `json:"description"`
	SourceCode  string `json:"sourceCode,omitempty"`
	MDX         string `json:"mdx,omitempty"`
}

// Provenance records which extraction strategy produced a catalog.
type Provenance string

const (
	// ProvenanceSource marks catalogs built by parsing story source files.
	ProvenanceSource Provenance = "source"
	// ProvenanceArtifact marks catalogs built from a built index artifact.
	ProvenanceArtifact Provenance = "artifact"
	// ProvenanceLive marks catalogs built by deep live-server introspection.
	ProvenanceLive Provenance = "live"
	// ProvenanceLiveBasic marks catalogs built from a live server's basic
	// index only.
	ProvenanceLiveBasic Provenance = "live-basic"
	// ProvenanceNone marks an empty catalog where no strategy produced data.
	ProvenanceNone Provenance = "none"
)
