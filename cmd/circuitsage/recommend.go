package main

import (
	"context"
	"fmt"

	"github.com/kallenvale/circuitsage/internal/model"
	"github.com/kallenvale/circuitsage/internal/recommender"
	"github.com/spf13/cobra"
)

func recommendCmd(configPath *string) *cobra.Command {
	var category, priority, currency string
	var maxPrice float64
	var maxResults int
	var exclude []string

	cmd := &cobra.Command{
		Use:   "recommend [requirement]",
		Short: "Recommend a component for a natural-language requirement (C5)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			req := recommender.Request{
				NaturalLanguageRequirement: args[0],
				Priority:                   recommender.Priority(priority),
				ExcludePartNumbers:         exclude,
				MaxResults:                 maxResults,
			}
			if category != "" {
				req.Category = model.ParseCategory(category)
			}
			if maxPrice > 0 {
				req.Budget = &recommender.Budget{Currency: currency, MaxUnitPrice: maxPrice}
			}

			result, err := a.rec.Recommend(context.Background(), req)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			if result.Degraded {
				fmt.Println("(degraded mode: LLM inference unavailable, ranking by lexical/vector score only)")
			}
			for i, r := range result.Recommendations {
				fmt.Printf("%d. %s (%s) — score %.3f\n", i+1, r.Component.PartNumber, r.Component.Manufacturer, r.CombinedScore)
				if r.Justification != "" {
					fmt.Printf("   %s\n", r.Justification)
				}
				for _, alt := range r.Alternatives {
					fmt.Printf("   alt: %s\n", alt.PartNumber)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "component category (inferred from the requirement if unset)")
	cmd.Flags().StringVar(&priority, "priority", string(recommender.PriorityBalanced), "cost|performance|availability|balanced")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum unit price")
	cmd.Flags().StringVar(&currency, "currency", "USD", "budget currency")
	cmd.Flags().IntVar(&maxResults, "max-results", 5, "maximum recommendations")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "part numbers to exclude")
	return cmd
}
