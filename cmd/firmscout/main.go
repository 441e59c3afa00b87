// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the firmscout CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/firmscout/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// apiKey returns the search service credential, preferring the environment
// over the key file.
func apiKey() string {
	return secrets.Resolve(loadedSecrets, secrets.APIKeyName)
}

// rootCmd is the base command for the firmscout CLI.
var rootCmd = &cobra.Command{
	Use:   "firmscout",
	Short: "Search for companies and curate the results into a saved collection",
	Long: `firmscout runs batched company searches against the remote search service,
deduplicates the results against your saved collection, and tracks the
credits each search consumes.

Searches cost credits up front (reserved at submission, settled at the
actual charge). Saved results are kept locally in SQLite and can be
listed, deleted, exported, or cleared with the collection subcommands.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./firmscout.yaml or ~/.config/firmscout/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("firmscout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "firmscout"))
		}
	}

	viper.SetEnvPrefix("FIRMSCOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
