package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "circuitsage",
		Short: "circuitsage — AI-assisted circuit design core",
		Long:  "Searches component catalogs, recommends parts, generates and validates netlists, and drives SPICE simulations.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: ./config.toml or ~/.circuitsage/config.toml)")

	root.AddCommand(
		searchCmd(&configPath),
		recommendCmd(&configPath),
		generateCmd(&configPath),
		validateCmd(),
		simulateCmd(&configPath),
		modelsCmd(&configPath),
		supplierCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
