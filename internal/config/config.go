// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

// Package config defines the kgpath configuration surface: remote
// endpoints, HTTP behavior, pipeline batching, and rate limits.
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kgpath-dev/kgpath/internal/wikidata"
	kgerr "github.com/kgpath-dev/kgpath/pkg/errors"
)

// Config is the top-level kgpath configuration.
type Config struct {
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Rate      RateConfig      `mapstructure:"rate"`
}

// EndpointsConfig holds the remote service URLs.
type EndpointsConfig struct {
	SPARQL string `mapstructure:"sparql"`
	Labels string `mapstructure:"labels"`
}

// HTTPConfig controls outbound request behavior. Wikimedia policy requires
// a descriptive User-Agent, so it is configuration rather than a constant.
type HTTPConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// PipelineConfig controls batching and output handling. Zero batch sizes
// select the per-mode defaults (120/40 one-hop, 10/10 four-hop).
type PipelineConfig struct {
	Mode           string `mapstructure:"mode"`
	PairBatchSize  int    `mapstructure:"pair_batch_size"`
	LabelBatchSize int    `mapstructure:"label_batch_size"`
	Truncate       bool   `mapstructure:"truncate"`
}

// RateConfig paces requests against the remote services.
type RateConfig struct {
	QueryInterval  time.Duration `mapstructure:"query_interval"`
	LabelInterval  time.Duration `mapstructure:"label_interval"`
	FailureBackoff time.Duration `mapstructure:"failure_backoff"`
}

// SetDefaults registers every config default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("endpoints.sparql", "https://query.wikidata.org/sparql")
	v.SetDefault("endpoints.labels", "https://www.wikidata.org/w/api.php")
	v.SetDefault("http.user_agent", "kgpath/0.1 (https://github.com/kgpath-dev/kgpath)")
	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("pipeline.mode", string(wikidata.ModeOneHop))
	v.SetDefault("pipeline.pair_batch_size", 0)
	v.SetDefault("pipeline.label_batch_size", 0)
	v.SetDefault("pipeline.truncate", false)
	v.SetDefault("rate.query_interval", 1500*time.Millisecond)
	v.SetDefault("rate.label_interval", 1500*time.Millisecond)
	v.SetDefault("rate.failure_backoff", 5*time.Second)
}

// SetupEnv binds KGPATH_-prefixed environment variables to config keys.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("KGPATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the configuration resolved by v. The
// caller is responsible for defaults, env bindings, and the config file
// (see cmd root wiring).
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, kgerr.Wrapf(err, kgerr.CodeConfigValidateInvalidValue, "unmarshalling config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, kgerr.Wrapf(errors.Join(errs...), kgerr.CodeConfigValidateInvalidValue, "validating config")
	}

	return &cfg, nil
}

// Mode returns the typed pipeline mode.
func (c *Config) Mode() wikidata.Mode {
	return wikidata.Mode(c.Pipeline.Mode)
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	for key, raw := range map[string]string{
		"endpoints.sparql": c.Endpoints.SPARQL,
		"endpoints.labels": c.Endpoints.Labels,
	} {
		if raw == "" {
			errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
				"config: %s must not be empty", key))
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
				"config: %s must be an absolute URL, got %q", key, raw))
		}
	}

	if c.HTTP.UserAgent == "" {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: http.user_agent must not be empty"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: http.timeout must be greater than 0, got %s", c.HTTP.Timeout))
	}

	validModes := map[string]bool{
		string(wikidata.ModeOneHop):  true,
		string(wikidata.ModeFourHop): true,
	}
	if !validModes[c.Pipeline.Mode] {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: pipeline.mode must be one of [onehop, fourhop], got %q", c.Pipeline.Mode))
	}

	if c.Pipeline.PairBatchSize < 0 {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: pipeline.pair_batch_size must not be negative, got %d", c.Pipeline.PairBatchSize))
	}
	if c.Pipeline.LabelBatchSize < 0 {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: pipeline.label_batch_size must not be negative, got %d", c.Pipeline.LabelBatchSize))
	} else if c.Pipeline.LabelBatchSize > wikidata.MaxLabelBatch {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: pipeline.label_batch_size must not exceed the service cap of %d, got %d",
			wikidata.MaxLabelBatch, c.Pipeline.LabelBatchSize))
	}

	if c.Rate.QueryInterval < 0 {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: rate.query_interval must not be negative, got %s", c.Rate.QueryInterval))
	}
	if c.Rate.LabelInterval < 0 {
		errs = append(errs, kgerr.Errorf(kgerr.CodeConfigValidateInvalidValue,
			"config: rate.label_interval must not be negative, got %s", c.Rate.LabelInterval))
	}

	return errs
}
