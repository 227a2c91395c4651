package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"a.ts", LanguageTypeScript},
		{"a.tsx", LanguageTypeScript},
		{"a.mts", LanguageTypeScript},
		{"a.js", LanguageJavaScript},
		{"a.jsx", LanguageJavaScript},
		{"a.mjs", LanguageJavaScript},
		{"A.TSX", LanguageTypeScript},
		{"a.css", LanguageUnknown},
		{"a", LanguageUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), "DetectLanguage(%q)", tt.path)
	}
}

func TestIsTSXFile(t *testing.T) {
	assert.True(t, IsTSXFile("Button.tsx"))
	assert.False(t, IsTSXFile("Button.ts"))
	assert.False(t, IsTSXFile("Button.jsx"))
}

func TestManager_Parse(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.Parse([]byte(`const x: number = 1;`), LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	require.NotNil(t, root)
	assert.False(t, root.HasError())
	assert.Equal(t, "program", root.Kind())
}

func TestManager_ParseTSX(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.Parse([]byte(`const el = <div className="a" />;`), LanguageTypeScript, true)
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.RootNode().HasError())
}

func TestManager_ParseFile(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.ParseFile([]byte(`export default {};`), "Button.stories.jsx")
	require.NoError(t, err)
	tree.Close()

	_, err = m.ParseFile([]byte("body {}"), "styles.css")
	assert.Error(t, err)
}

func TestManager_PartialTreeReturned(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.Parse([]byte(`export const = {{{`), LanguageTypeScript, false)
	require.NoError(t, err, "syntax errors still yield a partial tree")
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestManager_ConcurrentParses(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := m.Parse([]byte(`export const A = { args: { n: 1 } };`), LanguageTypeScript, false)
			assert.NoError(t, err)
			if tree != nil {
				tree.Close()
			}
		}()
	}
	wg.Wait()
}
