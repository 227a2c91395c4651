package stories

import (
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/storydex/pkg/parser"
)

// Walker parses story files into their raw intermediate representation.
type Walker struct {
	pm     *parser.Manager
	logger *slog.Logger
}

// NewWalker creates a Walker. logger may be nil.
func NewWalker(pm *parser.Manager, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{pm: pm, logger: logger}
}

// ParseFile parses one story file and extracts the default-export meta
// object, named story exports, and per-story `X.args` / `X.storyName`
// assignments.
//
// Returns an error only when the file cannot be parsed at all; within a
// parsed file, extraction is tolerant and simply skips what it cannot
// resolve.
func (w *Walker) ParseFile(source []byte, path string) (*FileStories, error) {
	tree, err := w.pm.ParseFile(source, path)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("no syntax tree for %s", path)
	}

	fw := &fileWalk{
		source:   source,
		topLevel: make(map[string]*ts.Node),
		storyIdx: make(map[string]int),
	}

	// First pass: record every top-level declaration so identifier exports
	// (`export default meta`, `export { Primary }`) can be resolved.
	for i := uint(0); i < uint(root.NamedChildCount()); i++ {
		fw.collectDeclarations(root.NamedChild(i))
	}

	// Second pass: exports and story-member assignments, in order.
	for i := uint(0); i < uint(root.NamedChildCount()); i++ {
		fw.walkStatement(root.NamedChild(i))
	}

	fs := &FileStories{
		Path:    path,
		Source:  source,
		HasMeta: fw.metaNode != nil,
		Stories: fw.stories,
	}
	if fw.metaNode != nil {
		fs.Meta = metaFromObject(fw.metaNode, source)
	}
	return fs, nil
}

// fileWalk accumulates state for one file traversal.
type fileWalk struct {
	source   []byte
	topLevel map[string]*ts.Node // declarator name -> value node
	metaNode *ts.Node            // default-export object literal
	metaName string              // identifier the meta was exported through
	stories  []Story
	storyIdx map[string]int // export name -> index into stories
}

// collectDeclarations records top-level `const X = ...` declarator values,
// including ones nested in export statements.
func (fw *fileWalk) collectDeclarations(node *ts.Node) {
	switch node.Kind() {
	case "lexical_declaration", "variable_declaration":
		fw.recordDeclarators(node)
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			if decl.Kind() == "lexical_declaration" || decl.Kind() == "variable_declaration" {
				fw.recordDeclarators(decl)
			}
		}
	}
}

func (fw *fileWalk) recordDeclarators(decl *ts.Node) {
	for i := uint(0); i < uint(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		value := child.ChildByFieldName("value")
		if name != nil && name.Kind() == "identifier" && value != nil {
			fw.topLevel[name.Utf8Text(fw.source)] = value
		}
	}
}

func (fw *fileWalk) walkStatement(node *ts.Node) {
	switch node.Kind() {
	case "export_statement":
		fw.walkExport(node)
	case "expression_statement":
		fw.walkAssignment(node)
	}
}

// walkExport handles both the default export (meta) and named exports
// (candidate stories).
func (fw *fileWalk) walkExport(node *ts.Node) {
	if isDefaultExport(node) {
		expr := node.ChildByFieldName("value")
		if expr == nil {
			expr = node.ChildByFieldName("declaration")
		}
		if obj, via := fw.resolveObject(expr); obj != nil {
			fw.metaNode = obj
			fw.metaName = via
		}
		return
	}

	// Named export with inline declaration.
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		switch decl.Kind() {
		case "lexical_declaration", "variable_declaration":
			for i := uint(0); i < uint(decl.NamedChildCount()); i++ {
				child := decl.NamedChild(i)
				if child.Kind() != "variable_declarator" {
					continue
				}
				name := child.ChildByFieldName("name")
				if name == nil || name.Kind() != "identifier" {
					continue
				}
				fw.addCandidate(name.Utf8Text(fw.source), child.ChildByFieldName("value"))
			}
		case "function_declaration", "generator_function_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				fw.addCandidate(name.Utf8Text(fw.source), nil)
			}
		}
		return
	}

	// Export clause re-exporting earlier declarations: export { Primary }.
	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "export_clause" {
			continue
		}
		for j := uint(0); j < uint(child.NamedChildCount()); j++ {
			spec := child.NamedChild(j)
			if spec.Kind() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			exportName := name.Utf8Text(fw.source)
			fw.addCandidate(exportName, fw.topLevel[exportName])
		}
	}
}

// addCandidate registers a named export as a candidate story. The default
// export's identifier is not a story even though it is also declared at the
// top level.
func (fw *fileWalk) addCandidate(exportName string, value *ts.Node) {
	if exportName == "" || exportName == "default" || exportName == fw.metaName {
		return
	}
	if _, exists := fw.storyIdx[exportName]; exists {
		return
	}

	story := Story{
		ExportName: exportName,
		Args:       map[string]any{},
	}

	// CSF3 object stories carry their fields inline.
	if obj := unwrapExpression(value); obj != nil && obj.Kind() == "object" {
		fields := normalizeObject(obj, fw.source)
		if name, ok := fields["name"].(string); ok {
			story.Name = name
		}
		if args, ok := fields["args"].(map[string]any); ok {
			story.Args = args
		}
		if argTypes, ok := fields["argTypes"].(map[string]any); ok {
			story.ArgTypes = argTypes
		}
		if params, ok := fields["parameters"].(map[string]any); ok {
			story.Parameters = params
		}
	}

	fw.storyIdx[exportName] = len(fw.stories)
	fw.stories = append(fw.stories, story)
}

// walkAssignment attributes `X.args = {...}` and `X.storyName = "..."`
// statements to the matching candidate story. Assignments to identifiers
// that were never exported are ignored.
func (fw *fileWalk) walkAssignment(stmt *ts.Node) {
	expr := stmt.NamedChild(0)
	if expr == nil || expr.Kind() != "assignment_expression" {
		return
	}

	left := expr.ChildByFieldName("left")
	right := expr.ChildByFieldName("right")
	if left == nil || right == nil || left.Kind() != "member_expression" {
		return
	}

	object := left.ChildByFieldName("object")
	property := left.ChildByFieldName("property")
	if object == nil || property == nil || object.Kind() != "identifier" {
		return
	}

	idx, ok := fw.storyIdx[object.Utf8Text(fw.source)]
	if !ok {
		return
	}

	switch property.Utf8Text(fw.source) {
	case "args":
		if obj := unwrapExpression(right); obj != nil && obj.Kind() == "object" {
			fw.stories[idx].Args = normalizeObject(obj, fw.source)
		}
	case "storyName":
		if name, ok := Normalize(unwrapExpression(right), fw.source).(string); ok {
			fw.stories[idx].Name = name
		}
	case "parameters":
		if obj := unwrapExpression(right); obj != nil && obj.Kind() == "object" {
			fw.stories[idx].Parameters = normalizeObject(obj, fw.source)
		}
	}
}

// resolveObject unwraps an expression to an object literal, following one
// identifier indirection to a top-level declaration (`const meta = {...};
// export default meta;`). Returns the object node and the identifier name
// it was reached through, if any.
func (fw *fileWalk) resolveObject(expr *ts.Node) (*ts.Node, string) {
	node := unwrapExpression(expr)
	if node == nil {
		return nil, ""
	}
	if node.Kind() == "object" {
		return node, ""
	}
	if node.Kind() == "identifier" {
		name := node.Utf8Text(fw.source)
		if target := unwrapExpression(fw.topLevel[name]); target != nil && target.Kind() == "object" {
			return target, name
		}
	}
	return nil, ""
}

// unwrapExpression strips type assertions (`as`, `satisfies`, non-null) and
// parentheses, recursively; assertion-of-assertion is possible.
func unwrapExpression(node *ts.Node) *ts.Node {
	for node != nil {
		switch node.Kind() {
		case "as_expression", "satisfies_expression", "non_null_expression", "parenthesized_expression":
			node = node.NamedChild(0)
		default:
			return node
		}
	}
	return nil
}

// isDefaultExport reports whether an export_statement has the `default`
// keyword.
func isDefaultExport(node *ts.Node) bool {
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		if node.Child(i).Kind() == "default" {
			return true
		}
	}
	return false
}

// metaFromObject extracts the meta fields from a normalized default-export
// object literal.
func metaFromObject(obj *ts.Node, source []byte) Meta {
	fields := normalizeObject(obj, source)

	meta := Meta{}
	if title, ok := fields["title"].(string); ok {
		meta.Title = title
	}
	if component, ok := fields["component"].(string); ok {
		meta.Component = component
	}
	if tags, ok := fields["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				meta.Tags = append(meta.Tags, s)
			}
		}
	}
	if args, ok := fields["args"].(map[string]any); ok {
		meta.Args = args
	}
	if argTypes, ok := fields["argTypes"].(map[string]any); ok {
		meta.ArgTypes = argTypes
	}
	if params, ok := fields["parameters"].(map[string]any); ok {
		meta.Parameters = params
	}
	return meta
}
