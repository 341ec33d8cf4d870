package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/kallenvale/circuitsage/internal/catalog"
	"github.com/kallenvale/circuitsage/internal/model"
	"github.com/spf13/cobra"
	"os"
)

func searchCmd(configPath *string) *cobra.Command {
	var category, manufacturer string
	var minStock, limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the component catalog (C1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var query string
			if len(args) == 1 {
				query = args[0]
			}

			filter := catalog.SearchFilter{
				FreeText:           query,
				ManufacturerPrefix: manufacturer,
				MinStockLevel:      minStock,
				Limit:              limit,
			}
			if category != "" {
				filter.Category = model.ParseCategory(category)
			}

			results, err := a.store.Search(filter)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("no matching components")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PART\tMANUFACTURER\tCATEGORY\tSCORE\tDESCRIPTION")
			for _, r := range results {
				desc := r.Component.Description
				if len(desc) > 50 {
					desc = desc[:47] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", r.Component.PartNumber, r.Component.Manufacturer, r.Component.Category, r.Score, desc)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "component category")
	cmd.Flags().StringVar(&manufacturer, "manufacturer", "", "manufacturer prefix")
	cmd.Flags().IntVar(&minStock, "min-stock", 0, "minimum stock level")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}
