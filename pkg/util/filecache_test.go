package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileCache_Read(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.ts", "export const a = 1;")

	fc := NewFileCache(0, nil)
	defer fc.Close()

	data, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;", string(data))
	assert.Equal(t, 1, fc.Size())

	// Second read serves the cached mapping.
	again, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, 1, fc.Size())
}

func TestFileCache_ReadMissingFile(t *testing.T) {
	fc := NewFileCache(0, nil)
	defer fc.Close()

	_, err := fc.Read(filepath.Join(t.TempDir(), "absent.ts"))
	assert.Error(t, err)
}

func TestFileCache_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.ts", "")

	fc := NewFileCache(0, nil)
	defer fc.Close()

	data, err := fc.Read(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileCache_Evict(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.ts", "old")

	fc := NewFileCache(0, nil)
	defer fc.Close()

	_, err := fc.Read(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new content"), 0o644))
	fc.Evict(path)

	data, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

func TestOptimalPoolSize(t *testing.T) {
	size := OptimalPoolSize()
	assert.GreaterOrEqual(t, size, 4)
	assert.LessOrEqual(t, size, 32)

	assert.Equal(t, 7, OptimalPoolSizeWithOverride(7))
	assert.Equal(t, size, OptimalPoolSizeWithOverride(0))
}
