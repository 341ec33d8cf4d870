package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kallenvale/circuitsage/internal/circuit"
	"github.com/kallenvale/circuitsage/internal/simulate"
	"github.com/spf13/cobra"
)

func simulateCmd(configPath *string) *cobra.Command {
	var kind, dcSource, acSweep string
	var dcStart, dcStop, dcStep, acFStart, acFStop float64
	var acPoints int
	var tStep, tStop float64

	cmd := &cobra.Command{
		Use:   "simulate <netlist-file>",
		Short: "Run a SPICE analysis over a netlist through the native simulation adapter (C8)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read netlist: %w", err)
			}
			graph, err := circuit.Parse(string(text))
			if err != nil {
				return fmt.Errorf("parse netlist: %w", err)
			}

			req, err := buildRunRequest(kind, dcSource, dcStart, dcStop, dcStep, acSweep, acPoints, acFStart, acFStop, tStep, tStop)
			if err != nil {
				return err
			}

			engine, err := a.openSimulationEngine()
			if err != nil {
				return fmt.Errorf("open simulation engine: %w", err)
			}
			defer engine.Close()

			ctx := context.Background()
			if err := engine.LoadNetlist(ctx, circuit.Emit(graph)); err != nil {
				return fmt.Errorf("load netlist: %w", err)
			}

			result, err := engine.Run(ctx, req)
			if err != nil {
				return fmt.Errorf("run simulation: %w", err)
			}

			for node, values := range result.NodeVoltages {
				fmt.Printf("v(%s): %v\n", node, values)
			}
			for designator, values := range result.BranchCurrents {
				fmt.Printf("i(%s): %v\n", designator, values)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "op", "op|dc|ac|tran")
	cmd.Flags().StringVar(&dcSource, "dc-source", "", "DC sweep source designator")
	cmd.Flags().Float64Var(&dcStart, "dc-start", 0, "DC sweep start")
	cmd.Flags().Float64Var(&dcStop, "dc-stop", 0, "DC sweep stop")
	cmd.Flags().Float64Var(&dcStep, "dc-step", 0, "DC sweep step")
	cmd.Flags().StringVar(&acSweep, "ac-sweep", "dec", "dec|oct|lin")
	cmd.Flags().IntVar(&acPoints, "ac-points", 10, "AC points per sweep unit")
	cmd.Flags().Float64Var(&acFStart, "ac-fstart", 1, "AC sweep start frequency")
	cmd.Flags().Float64Var(&acFStop, "ac-fstop", 1e6, "AC sweep stop frequency")
	cmd.Flags().Float64Var(&tStep, "tran-step", 1e-6, "transient time step")
	cmd.Flags().Float64Var(&tStop, "tran-stop", 1e-3, "transient stop time")
	return cmd
}

func buildRunRequest(kind, dcSource string, dcStart, dcStop, dcStep float64, acSweep string, acPoints int, acFStart, acFStop, tStep, tStop float64) (simulate.RunRequest, error) {
	switch kind {
	case "op":
		return simulate.RunRequest{Kind: simulate.OperatingPoint}, nil
	case "dc":
		if dcSource == "" {
			return simulate.RunRequest{}, fmt.Errorf("--dc-source is required for a DC sweep")
		}
		return simulate.RunRequest{Kind: simulate.DC, DC: &simulate.DCParams{
			Source: dcSource, Start: dcStart, Stop: dcStop, Step: dcStep,
		}}, nil
	case "ac":
		return simulate.RunRequest{Kind: simulate.AC, AC: &simulate.ACParams{
			Sweep: simulate.SweepKind(acSweep), Points: acPoints, FStart: acFStart, FStop: acFStop,
		}}, nil
	case "tran":
		return simulate.RunRequest{Kind: simulate.Transient, Transient: &simulate.TransientParams{
			TStep: tStep, TStop: tStop,
		}}, nil
	default:
		return simulate.RunRequest{}, fmt.Errorf("unknown analysis kind %q (want op, dc, ac, or tran)", kind)
	}
}
