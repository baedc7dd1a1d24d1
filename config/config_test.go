package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 256, cfg.VM.StackCapacity)
	assert.False(t, cfg.VM.TraceExecution)
	assert.False(t, cfg.Compiler.DebugPrintCode)
	assert.Equal(t, 1000, cfg.Debugger.HistorySize)
	assert.True(t, cfg.Debugger.ShowSource)
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loxvm.toml")

	cfg := DefaultConfig()
	cfg.VM.StackCapacity = 512
	cfg.VM.TraceExecution = true
	cfg.Compiler.DebugPrintCode = true

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
