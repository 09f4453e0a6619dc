package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "recap",
		Short:         "recap — TL;DR and chapters for YouTube videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "recap.yaml", "path to config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSummarizeCmd(&configPath),
		newCacheCmd(&configPath),
		newStatsCmd(&configPath),
		newMCPCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
