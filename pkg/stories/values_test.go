package stories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// argsOf parses a single-story file and returns the story's normalized args.
func argsOf(t *testing.T, argsLiteral string) map[string]any {
	t.Helper()

	fs := parseStories(t, "Values.stories.tsx", `
export default { title: "Values" };
export const Sample = {};
Sample.args = `+argsLiteral+`;
`)
	require.Len(t, fs.Stories, 1)
	return fs.Stories[0].Args
}

func TestNormalize_Primitives(t *testing.T) {
	args := argsOf(t, `{
  label: "hello",
  single: 'quoted',
  count: 42,
  ratio: 0.5,
  negative: -3,
  enabled: true,
  disabled: false,
  empty: null,
  missing: undefined,
}`)

	assert.Equal(t, "hello", args["label"])
	assert.Equal(t, "quoted", args["single"])
	assert.Equal(t, int64(42), args["count"])
	assert.Equal(t, 0.5, args["ratio"])
	assert.Equal(t, int64(-3), args["negative"])
	assert.Equal(t, true, args["enabled"])
	assert.Equal(t, false, args["disabled"])
	assert.Nil(t, args["empty"])
	assert.Nil(t, args["missing"])
}

func TestNormalize_FunctionSentinel(t *testing.T) {
	args := argsOf(t, `{
  onClick: () => {},
  onSubmit: function (e) { e.preventDefault(); },
  render() {},
}`)

	assert.Equal(t, SentinelFunction, args["onClick"])
	assert.Equal(t, SentinelFunction, args["onSubmit"])
	assert.Equal(t, SentinelFunction, args["render"])
}

func TestNormalize_JSXSentinel(t *testing.T) {
	args := argsOf(t, `{
  icon: <Icon name="star" />,
  children: <span>hi</span>,
}`)

	assert.Equal(t, SentinelJSX, args["icon"])
	assert.Equal(t, SentinelJSX, args["children"])
}

func TestNormalize_NestedContainers(t *testing.T) {
	args := argsOf(t, `{
  style: { color: "red", size: { w: 10, h: 20 } },
  items: ["a", "b", 3],
}`)

	style := args["style"].(map[string]any)
	assert.Equal(t, "red", style["color"])
	assert.Equal(t, map[string]any{"w": int64(10), "h": int64(20)}, style["size"])
	assert.Equal(t, []any{"a", "b", int64(3)}, args["items"])
}

func TestNormalize_ArraysFilterNilElements(t *testing.T) {
	args := argsOf(t, `{
  mixed: ["keep", null, undefined, someCall(), 7],
}`)

	assert.Equal(t, []any{"keep", int64(7)}, args["mixed"])
}

func TestNormalize_BareIdentifierIsItsName(t *testing.T) {
	args := argsOf(t, `{
  variant: PRIMARY_VARIANT,
  shorthand,
}`)

	assert.Equal(t, "PRIMARY_VARIANT", args["variant"])
	assert.Equal(t, "shorthand", args["shorthand"])
}

func TestNormalize_TemplateStrings(t *testing.T) {
	args := argsOf(t, "{ constant: `plain`, interpolated: `a${b}c` }")

	assert.Equal(t, "plain", args["constant"])
	assert.Nil(t, args["interpolated"])
}

func TestNormalize_StringKeys(t *testing.T) {
	args := argsOf(t, `{ "data-test": "x", 'aria-label': "y" }`)

	assert.Equal(t, "x", args["data-test"])
	assert.Equal(t, "y", args["aria-label"])
}

func TestNormalize_SpreadSkipped(t *testing.T) {
	args := argsOf(t, `{ ...baseArgs, own: 1 }`)

	assert.Equal(t, int64(1), args["own"])
	assert.NotContains(t, args, "baseArgs")
}
