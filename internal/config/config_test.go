package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpgrars/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoadReadsRecognizedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fpgrars.toml")
	body := `
file = "prog.s"
width = 640
height = 480
scale = 3
port = 1
no_video = true
print_instructions = true
print_state = false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prog.s", cfg.File)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 3, cfg.Scale)
	assert.Equal(t, 1, cfg.Port)
	assert.True(t, cfg.NoVideo)
	assert.True(t, cfg.PrintInstructions)
}

func TestMergeCLIOverridesFile(t *testing.T) {
	cfg := config.Config{Width: 640, Height: 480, Scale: 3}
	width := 100
	merged := config.Merge(cfg, config.Overrides{Width: &width})

	assert.Equal(t, 100, merged.Width)
	assert.Equal(t, 480, merged.Height)
}
