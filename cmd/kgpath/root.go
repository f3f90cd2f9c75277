// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kgpath-dev/kgpath/internal/config"
	kgerr "github.com/kgpath-dev/kgpath/pkg/errors"
)

// NewRootCmd creates the root kgpath command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kgpath",
		Short:         "kgpath — Wikidata relation path enrichment",
		Long:          "kgpath enriches entity pairs with the Wikidata relation paths connecting them, resolving every identifier to a human-readable label.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newEnrichCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return kgerr.Wrapf(err, kgerr.CodeConfigLoadReadFailure, "reading config file")
		}
	} else {
		// Auto-discover kgpath.yaml from standard locations.
		// Note: SetConfigType is intentionally omitted. When set, Viper
		// falls back to trying the bare config name without extension,
		// which collides with the ./kgpath binary in the project root.
		v.SetConfigName("kgpath")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/kgpath")
		v.AddConfigPath("/etc/kgpath")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return kgerr.Wrapf(err, kgerr.CodeConfigLoadReadFailure, "reading config")
			}
		}
	}

	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return kgerr.Wrapf(err, kgerr.CodeCLISetupFailure, "binding verbose flag")
	}

	return nil
}
