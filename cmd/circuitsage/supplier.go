package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func supplierCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supplier",
		Short: "Query the Supplier Aggregator collaborator boundary (C4)",
	}
	cmd.AddCommand(supplierSearchCmd(configPath))
	return cmd
}

func supplierSearchCmd(configPath *string) *cobra.Command {
	var limit int
	var doImport bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the supplier aggregator for matching parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Supplier.BaseURL == "" {
				return fmt.Errorf("supplier.base_url is not configured")
			}

			results, err := a.supplier.Search(context.Background(), args[0], limit)
			if err != nil {
				return fmt.Errorf("supplier search: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("no matching components")
				return nil
			}

			if doImport {
				if err := a.store.BulkImport(results); err != nil {
					return fmt.Errorf("import into catalog: %w", err)
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PART\tMANUFACTURER\tCATEGORY\tDESCRIPTION")
			for _, c := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.PartNumber, c.Manufacturer, c.Category, c.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	cmd.Flags().BoolVar(&doImport, "import", false, "import results into the local catalog (C1)")
	return cmd
}
