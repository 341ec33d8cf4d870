package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func modelsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage inference server models (C3 lifecycle: list/pull/show/delete)",
	}
	cmd.AddCommand(
		modelsListCmd(configPath),
		modelsPullCmd(configPath),
		modelsShowCmd(configPath),
		modelsDeleteCmd(configPath),
	)
	return cmd
}

func modelsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models available on the inference server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			models, err := a.backend.ListModels(context.Background())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%d\t%s\n", m.Name, m.Size, m.ModifiedAt)
			}
			return w.Flush()
		},
	}
}

func modelsPullCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <name>",
		Short: "Pull a model onto the inference server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.backend.PullModel(context.Background(), args[0]); err != nil {
				return fmt.Errorf("pull model: %w", err)
			}
			fmt.Printf("pulled %s\n", args[0])
			return nil
		},
	}
}

func modelsShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a model's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			info, err := a.backend.ShowModel(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("show model: %w", err)
			}
			fmt.Printf("name: %s\nsize: %d\ndigest: %s\nmodified: %s\n", info.Name, info.Size, info.Digest, info.ModifiedAt)
			return nil
		},
	}
}

func modelsDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a model from the inference server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.backend.DeleteModel(context.Background(), args[0]); err != nil {
				return fmt.Errorf("delete model: %w", err)
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
