package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProjectConfig_Missing(t *testing.T) {
	cfg, err := loadProjectConfig(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadProjectConfig(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".storydex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
version: "1"
root: ./src
output: out/catalog.json
server_url: http://localhost:6006
`), 0o644))

	cfg, err := loadProjectConfig(root)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "./src", cfg.Root)
	assert.Equal(t, "out/catalog.json", cfg.Output)
	assert.Equal(t, "http://localhost:6006", cfg.ServerURL)
}

func TestLoadProjectConfig_Malformed(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".storydex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{{nope"), 0o644))

	_, err := loadProjectConfig(root)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "flag", resolve("flag", "file", "default"))
	assert.Equal(t, "file", resolve("", "file", "default"))
	assert.Equal(t, "default", resolve("", "", "default"))
}
