package stories

import (
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Sentinel values substituted for expressions that have no plain-data
// representation.
const (
	SentinelFunction = "[Function]"
	SentinelJSX      = "[JSX Element]"
)

// Normalize converts an AST expression node into a plain value, recursively
// for containers. The mapping is an exhaustive switch over node kinds;
// unknown kinds map to nil rather than failing.
//
// This is static extraction only: values produced by computation (spread,
// calls, template interpolation) degrade to nil or a sentinel. A bare
// identifier normalizes to its textual name, not its bound value.
func Normalize(node *ts.Node, source []byte) any {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case "string":
		return unquote(node.Utf8Text(source))

	case "number":
		return normalizeNumber(node.Utf8Text(source))

	case "true":
		return true
	case "false":
		return false

	case "null", "undefined":
		return nil

	case "object":
		return normalizeObject(node, source)

	case "array":
		return normalizeArray(node, source)

	case "arrow_function", "function_expression", "function", "generator_function":
		return SentinelFunction

	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return SentinelJSX

	case "identifier":
		// Best effort: the name, not the bound value.
		return node.Utf8Text(source)

	case "as_expression", "satisfies_expression", "non_null_expression", "parenthesized_expression":
		// Unwrap one level and retry; assertions can nest.
		return Normalize(node.NamedChild(0), source)

	case "template_string":
		// Only constant templates survive; interpolation is computation.
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Kind() == "template_substitution" {
				return nil
			}
		}
		return strings.Trim(node.Utf8Text(source), "`")

	case "unary_expression":
		return normalizeUnary(node, source)

	default:
		return nil
	}
}

// NormalizeObject normalizes an object literal node to a map. Returns an
// empty map when node is not an object literal.
func NormalizeObject(node *ts.Node, source []byte) map[string]any {
	if node == nil || node.Kind() != "object" {
		return map[string]any{}
	}
	return normalizeObject(node, source)
}

func normalizeObject(node *ts.Node, source []byte) map[string]any {
	result := make(map[string]any)

	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "pair":
			key, ok := pairKey(child, source)
			if !ok {
				continue
			}
			result[key] = Normalize(child.ChildByFieldName("value"), source)

		case "shorthand_property_identifier":
			// { disabled } — same best-effort rule as bare identifiers.
			name := child.Utf8Text(source)
			result[name] = name

		case "method_definition":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				result[nameNode.Utf8Text(source)] = SentinelFunction
			}
		}
		// spread_element and computed members are computation; skipped.
	}

	return result
}

// pairKey resolves an object pair's key. Keys may be identifiers or string
// literals; anything else (computed keys) is unresolvable.
func pairKey(pair *ts.Node, source []byte) (string, bool) {
	keyNode := pair.ChildByFieldName("key")
	if keyNode == nil {
		return "", false
	}
	switch keyNode.Kind() {
	case "property_identifier", "identifier":
		return keyNode.Utf8Text(source), true
	case "string":
		return unquote(keyNode.Utf8Text(source)), true
	case "number":
		return keyNode.Utf8Text(source), true
	default:
		return "", false
	}
}

// normalizeArray normalizes array elements, filtering out elements that
// normalize to nil. An explicit null literal in an array is therefore
// dropped along with unsupported expression shapes.
func normalizeArray(node *ts.Node, source []byte) []any {
	result := make([]any, 0, node.NamedChildCount())
	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		if v := Normalize(node.NamedChild(i), source); v != nil {
			result = append(result, v)
		}
	}
	return result
}

func normalizeUnary(node *ts.Node, source []byte) any {
	arg := node.ChildByFieldName("argument")
	op := node.ChildByFieldName("operator")
	if arg == nil || arg.Kind() != "number" {
		return nil
	}
	v := normalizeNumber(arg.Utf8Text(source))
	if op == nil || op.Utf8Text(source) != "-" {
		return nil
	}
	switch n := v.(type) {
	case int64:
		return -n
	case float64:
		return -n
	default:
		return nil
	}
}

func normalizeNumber(text string) any {
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return nil
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
		(strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) ||
		(strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`"))
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
