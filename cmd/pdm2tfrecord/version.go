package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pdm2tfrecord",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pdm2tfrecord %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
