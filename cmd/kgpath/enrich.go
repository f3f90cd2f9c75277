// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package main

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kgpath-dev/kgpath/internal/config"
	"github.com/kgpath-dev/kgpath/internal/pipeline"
	"github.com/kgpath-dev/kgpath/internal/wikidata"
	kgerr "github.com/kgpath-dev/kgpath/pkg/errors"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich entity pairs with connecting relation paths",
		Long: "Read a tab-separated entity pair list, query the SPARQL endpoint for " +
			"connecting paths batch by batch, resolve every relation and intermediate " +
			"entity to its English label, and append the records to the output artifact.",
		RunE: runEnrich,
	}

	cmd.Flags().String("input", "", "path to the tab-separated entity pair list")
	cmd.Flags().String("output", "", "path of the output artifact (appended, never truncated by default)")
	cmd.Flags().String("mode", "", "path shape: onehop or fourhop")
	cmd.Flags().Int("pair-batch-size", 0, "pairs per path query (0 selects the per-mode default)")
	cmd.Flags().Int("label-batch-size", 0, "codes per label lookup (0 selects the per-mode default)")
	cmd.Flags().Bool("truncate", false, "clear the output artifact before the run")

	_ = viper.BindPFlag("pipeline.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("pipeline.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("pipeline.mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("pipeline.pair_batch_size", cmd.Flags().Lookup("pair-batch-size"))
	_ = viper.BindPFlag("pipeline.label_batch_size", cmd.Flags().Lookup("label-batch-size"))
	_ = viper.BindPFlag("pipeline.truncate", cmd.Flags().Lookup("truncate"))

	return cmd
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	input := v.GetString("pipeline.input")
	output := v.GetString("pipeline.output")
	if input == "" || output == "" {
		return kgerr.New(kgerr.CodeCLIInputInvalid, "both --input and --output are required")
	}

	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	paths := wikidata.NewPathClient(wikidata.PathClientConfig{
		Endpoint:        cfg.Endpoints.SPARQL,
		UserAgent:       cfg.HTTP.UserAgent,
		RequestInterval: cfg.Rate.QueryInterval,
		FailureBackoff:  cfg.Rate.FailureBackoff,
		HTTPClient:      httpClient,
		Logger:          logger,
	})
	resolver := wikidata.NewResolver(wikidata.ResolverConfig{
		Endpoint:        cfg.Endpoints.Labels,
		UserAgent:       cfg.HTTP.UserAgent,
		RequestInterval: cfg.Rate.LabelInterval,
		HTTPClient:      httpClient,
		Logger:          logger,
	})

	driver := pipeline.NewDriver(paths, resolver, pipeline.DriverConfig{
		Mode:           cfg.Mode(),
		PairBatchSize:  cfg.Pipeline.PairBatchSize,
		LabelBatchSize: cfg.Pipeline.LabelBatchSize,
		Truncate:       cfg.Pipeline.Truncate,
		Logger:         logger,
	})

	return driver.Run(cmd.Context(), input, output)
}
