package main

import (
	"github.com/spf13/cobra"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "router",
		Short: "Distributed ETL record router",
		Long:  "router ingests records from sources, routes them through pipeline stages, and enforces delivery semantics with backpressure and checkpointing.",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newVersionCommand())
	return root
}
