// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdm2tfrecord CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdm2tfrecord CLI.
var rootCmd = &cobra.Command{
	Use:   "pdm2tfrecord",
	Short: "Convert PDM image-annotation manifests to TFRecord files",
	Long: `pdm2tfrecord converts a PDM manifest (a JSON file describing images and
their labelled bounding boxes) into a TFRecord file of tf.train.Example
records for object-detection training.

Use convert to build the TFRecord file, inspect to verify and summarize one,
and catalog to query the optional SQLite record of past runs.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdm2tfrecord.yaml or ~/.config/pdm2tfrecord/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdm2tfrecord")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdm2tfrecord"))
		}
	}

	viper.SetEnvPrefix("PDM2TFRECORD")
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
