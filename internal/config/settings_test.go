package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	s := Settings{
		Model:      "cursor-small",
		OutputFile: "report.md",
		Latency:    LatencySettings{RequestMs: 100},
	}
	data, _ := json.Marshal(s)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	result, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "cursor-small", result.Model)
	assert.Equal(t, "report.md", result.OutputFile)
	assert.Equal(t, 100, result.Latency.RequestMs)
}

func TestLoadSettings_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := "model: cursor-fast\nledgerPath: /tmp/ledger.db\nlatency:\n  chunkMs: 5\n  fileMs: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "cursor-fast", result.Model)
	assert.Equal(t, "/tmp/ledger.db", result.LedgerPath)
	assert.Equal(t, 5, result.Latency.ChunkMs)
	assert.Equal(t, 50, result.Latency.FileMs)
}

func TestLoadSettings_MergeOrder(t *testing.T) {
	dir := t.TempDir()

	// User settings (loaded first)
	userPath := filepath.Join(dir, "user.json")
	userData, _ := json.Marshal(Settings{Model: "cursor-small", OutputFile: "user.txt", Latency: LatencySettings{ToolMs: 7}})
	require.NoError(t, os.WriteFile(userPath, userData, 0o644))

	// Project settings (loaded second, overrides user)
	projPath := filepath.Join(dir, "project.yml")
	require.NoError(t, os.WriteFile(projPath, []byte("model: cursor-large\nledgerPath: batch.db\n"), 0o644))

	result, err := LoadSettings(userPath, projPath)
	require.NoError(t, err)

	assert.Equal(t, "cursor-large", result.Model, "project should override user")
	assert.Equal(t, "user.txt", result.OutputFile, "user value preserved when project doesn't set it")
	assert.Equal(t, "batch.db", result.LedgerPath, "project value applied")
	assert.Equal(t, 7, result.Latency.ToolMs)
}

func TestLoadSettings_MissingFileSkipped(t *testing.T) {
	result, err := LoadSettings("/nonexistent/path.json")
	require.NoError(t, err)
	assert.Equal(t, "", result.Model)
}

func TestLoadSettings_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	result, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "", result.Model) // Invalid file skipped
}

func TestDefaultSettingsPaths(t *testing.T) {
	paths := DefaultSettingsPaths("/myproject")
	assert.Contains(t, paths, filepath.Join("/myproject", SettingsDir, "settings.json"))
	assert.Contains(t, paths, filepath.Join("/myproject", SettingsDir, "settings.yaml"))
}

func TestDefaultSettingsPaths_NoProject(t *testing.T) {
	for _, p := range DefaultSettingsPaths("") {
		assert.NotContains(t, p, "myproject")
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, Duration(0, time.Second))
	assert.Equal(t, time.Second, Duration(-3, time.Second))
	assert.Equal(t, 25*time.Millisecond, Duration(25, time.Second))
}
