package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kallenvale/circuitsage/internal/circuit"
	"github.com/kallenvale/circuitsage/internal/llm"
	"github.com/kallenvale/circuitsage/internal/validate"
	"github.com/spf13/cobra"
)

func generateCmd(configPath *string) *cobra.Command {
	var outPath string
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "generate [requirement]",
		Short: "Generate a netlist from a natural-language requirement via C3, then parse it with C6",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Debug("generating netlist", "requirement", args[0], "model", a.orch.CurrentModel())
			netlist, err := a.orch.Generate(context.Background(), generationPrompt(args[0]), llm.GenerateOptions{})
			if err != nil {
				return fmt.Errorf("generate netlist: %w", err)
			}

			graph, err := circuit.Parse(netlist)
			if err != nil {
				return fmt.Errorf("parse generated netlist: %w\n\n%s", err, netlist)
			}

			if !skipValidate {
				report := validate.Validate(graph)
				if report.HasErrors() {
					fmt.Fprintln(os.Stderr, "generated netlist has validation errors:")
					fmt.Fprintln(os.Stderr, report.String())
				}
			}

			rendered := circuit.Emit(graph)
			if outPath != "" {
				return os.WriteFile(outPath, []byte(rendered), 0644)
			}
			fmt.Println(rendered)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the netlist to this file instead of stdout")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "don't run C7 validation before emitting")
	return cmd
}

// generationPrompt renders a requirement into the prompt the orchestrator
// sends C3, asking for a SPICE-compatible netlist C6 can parse.
func generationPrompt(requirement string) string {
	return "Generate a SPICE-compatible netlist for the following circuit requirement. " +
		"Respond with only the netlist: a title line, one element line per component " +
		"(designator, nodes, value), a ground node named \"0\", and a trailing .end " +
		"directive. Do not include explanatory text.\n\nRequirement: " + requirement
}
