// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgpath-dev/kgpath/internal/config"
	"github.com/kgpath-dev/kgpath/internal/wikidata"
	kgerr "github.com/kgpath-dev/kgpath/pkg/errors"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "https://query.wikidata.org/sparql", cfg.Endpoints.SPARQL)
	assert.Equal(t, "https://www.wikidata.org/w/api.php", cfg.Endpoints.Labels)
	assert.Equal(t, wikidata.ModeOneHop, cfg.Mode())
	assert.Equal(t, 60*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Rate.QueryInterval)
	assert.Equal(t, 5*time.Second, cfg.Rate.FailureBackoff)
	// Zero batch sizes defer to the per-mode defaults in the driver.
	assert.Zero(t, cfg.Pipeline.PairBatchSize)
	assert.False(t, cfg.Pipeline.Truncate)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kgpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  mode: fourhop
  pair_batch_size: 10
  label_batch_size: 10
  truncate: true
rate:
  query_interval: 2s
`), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, wikidata.ModeFourHop, cfg.Mode())
	assert.Equal(t, 10, cfg.Pipeline.PairBatchSize)
	assert.True(t, cfg.Pipeline.Truncate)
	assert.Equal(t, 2*time.Second, cfg.Rate.QueryInterval)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1500*time.Millisecond, cfg.Rate.LabelInterval)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	v := newViper(t)
	v.Set("pipeline.mode", "twohop")

	_, err := config.Load(v)
	require.Error(t, err)
	assert.True(t, kgerr.HasCode(err, kgerr.CodeConfigValidateInvalidValue))
	assert.Contains(t, err.Error(), "pipeline.mode")
}

func TestValidateRejectsLabelBatchOverCap(t *testing.T) {
	v := newViper(t)
	v.Set("pipeline.label_batch_size", 51)

	_, err := config.Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label_batch_size")
}

func TestValidateRejectsBadEndpoint(t *testing.T) {
	v := newViper(t)
	v.Set("endpoints.sparql", "not-a-url")

	_, err := config.Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints.sparql")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := newViper(t)
	v.Set("pipeline.mode", "twohop")
	v.Set("http.user_agent", "")
	v.Set("pipeline.pair_batch_size", -1)

	_, err := config.Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.mode")
	assert.Contains(t, err.Error(), "http.user_agent")
	assert.Contains(t, err.Error(), "pair_batch_size")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("KGPATH_PIPELINE_MODE", "fourhop")

	v := newViper(t)
	config.SetupEnv(v)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, wikidata.ModeFourHop, cfg.Mode())
}
