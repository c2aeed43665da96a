// Package config handles settings loading and credential resolution.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SettingsDir is the directory name searched under the user home and project root.
const SettingsDir = ".cursor-agent"

// Settings holds merged configuration from multiple sources.
// Later sources override earlier ones (user < project).
type Settings struct {
	Model      string          `json:"model,omitempty" yaml:"model,omitempty"`
	OutputFile string          `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
	LedgerPath string          `json:"ledgerPath,omitempty" yaml:"ledgerPath,omitempty"`
	Latency    LatencySettings `json:"latency,omitempty" yaml:"latency,omitempty"`
}

// LatencySettings overrides simulated backend latency, in milliseconds.
// Negative values are ignored; zero keeps the default.
type LatencySettings struct {
	RequestMs int `json:"requestMs,omitempty" yaml:"requestMs,omitempty"`
	ChunkMs   int `json:"chunkMs,omitempty" yaml:"chunkMs,omitempty"`
	ToolMs    int `json:"toolMs,omitempty" yaml:"toolMs,omitempty"`
	FileMs    int `json:"fileMs,omitempty" yaml:"fileMs,omitempty"`
}

// Duration converts a millisecond setting, returning def when unset.
func Duration(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// LoadSettings merges settings from multiple JSON or YAML file paths.
// Later paths override earlier ones. Missing files are silently skipped.
func LoadSettings(paths ...string) (*Settings, error) {
	merged := &Settings{}

	for _, path := range paths {
		s, err := loadSettingsFile(path)
		if err != nil {
			continue // Skip missing or invalid files
		}
		mergeSettings(merged, s)
	}

	return merged, nil
}

// DefaultSettingsPaths returns the standard settings file search paths.
func DefaultSettingsPaths(projectDir string) []string {
	home, _ := os.UserHomeDir()
	var paths []string

	// User-level settings
	if home != "" {
		paths = append(paths,
			filepath.Join(home, SettingsDir, "settings.json"),
			filepath.Join(home, SettingsDir, "settings.yaml"),
		)
	}

	// Project-level settings
	if projectDir != "" {
		paths = append(paths,
			filepath.Join(projectDir, SettingsDir, "settings.json"),
			filepath.Join(projectDir, SettingsDir, "settings.yaml"),
		)
	}

	return paths
}

func loadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func mergeSettings(dst, src *Settings) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.OutputFile != "" {
		dst.OutputFile = src.OutputFile
	}
	if src.LedgerPath != "" {
		dst.LedgerPath = src.LedgerPath
	}
	if src.Latency.RequestMs > 0 {
		dst.Latency.RequestMs = src.Latency.RequestMs
	}
	if src.Latency.ChunkMs > 0 {
		dst.Latency.ChunkMs = src.Latency.ChunkMs
	}
	if src.Latency.ToolMs > 0 {
		dst.Latency.ToolMs = src.Latency.ToolMs
	}
	if src.Latency.FileMs > 0 {
		dst.Latency.FileMs = src.Latency.FileMs
	}
}
