package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigUsesMemoryBackend(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadConfigReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enact.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: file\n  path: /var/enact/store\n"), 0o644))

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/var/enact/store", cfg.Store.Path)
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enact.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0o644))

	t.Setenv("ENACT_STORE_BACKEND", "postgres")
	t.Setenv("ENACT_STORE_DSN", "postgres://localhost/enact")

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/enact", cfg.Store.DSN)
}
