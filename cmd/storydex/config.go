package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds the contents of .storydex/config.yaml.
type ProjectConfig struct {
	Version   string `yaml:"version"`
	Root      string `yaml:"root"`
	Output    string `yaml:"output"`
	ServerURL string `yaml:"server_url"`
	Artifact  string `yaml:"artifact"`
}

// loadProjectConfig reads .storydex/config.yaml relative to root (or the
// current directory when root is empty). Returns nil (no error) if the file
// does not exist.
func loadProjectConfig(root string) (*ProjectConfig, error) {
	path := filepath.Join(root, ".storydex", "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve applies the fallback chain flag > config file > default.
func resolve(flagValue, configValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}
