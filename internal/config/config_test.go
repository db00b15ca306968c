// Copyright 2025 James Ross
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.SearchDepth)
	assert.Equal(t, 5.0, cfg.MaxBatchVolume)
	assert.Contains(t, cfg.Menu.Milks, "No Milk")
	assert.NotEmpty(t, cfg.Endpoint, "expected a random endpoint fallback")
}

func TestValidateFails(t *testing.T) {
	cfg := defaultConfig()
	cfg.Menu.Milks = nil
	assert.Error(t, Validate(cfg))

	cfg = defaultConfig()
	cfg.MaxBatchVolume = 0
	assert.Error(t, Validate(cfg))

	cfg = defaultConfig()
	cfg.Port = 70000
	assert.Error(t, Validate(cfg))

	cfg = defaultConfig()
	cfg.Persistence.DBPath = ""
	assert.Error(t, Validate(cfg))
}
