package main

import (
	"fmt"
	"os"

	"github.com/kallenvale/circuitsage/internal/circuit"
	"github.com/kallenvale/circuitsage/internal/validate"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <netlist-file>",
		Short: "Parse a netlist (C6) and run the validation engine over it (C7)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read netlist: %w", err)
			}
			graph, err := circuit.Parse(string(text))
			if err != nil {
				return fmt.Errorf("parse netlist: %w", err)
			}

			report := validate.Validate(graph)
			if len(report.Findings) == 0 {
				fmt.Println("no findings")
			} else {
				fmt.Println(report.String())
			}
			fmt.Printf("\ncomponents=%d nodes=%d branches=%d floating=%d\n",
				report.Metrics.ComponentCount, report.Metrics.NodeCount, report.Metrics.BranchCount, report.Metrics.FloatingNodes)

			if report.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}
}
