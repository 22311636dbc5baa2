package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frogcheck/internal/property"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, property.All, cfg.Properties)
	assert.True(t, cfg.Templates)
	assert.Positive(t, cfg.Jobs)
	require.NoError(t, cfg.Validate())

	man := cfg.NewManager()
	assert.True(t, man.Templates)
	assert.Equal(t, cfg.MaxConstraints, man.MaxConstraints)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frogcheck.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
properties: [item_profit, OVERALL_PROFIT]
verbosity: 2
templates: false
jobs: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []property.Property{property.ItemProfit, property.OverallProfit}, cfg.Properties)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.False(t, cfg.Templates)
	assert.Equal(t, 3, cfg.Jobs)
	// untouched keys keep their defaults
	assert.True(t, cfg.Color)
	assert.False(t, cfg.NewManager().Templates)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("properties: [PROFIT]\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yml")
	require.NoError(t, os.WriteFile(empty, []byte("properties: []\n"), 0o644))
	_, err = Load(empty)
	assert.Error(t, err)

	zero := filepath.Join(dir, "zero.yml")
	require.NoError(t, os.WriteFile(zero, []byte("jobs: 0\n"), 0o644))
	_, err = Load(zero)
	assert.Error(t, err)
}
