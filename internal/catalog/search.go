package catalog

import (
	"sort"
	"strings"

	"github.com/kallenvale/circuitsage/internal/model"
)

// SearchFilter carries the optional criteria of spec.md §4.1's search
// operation: free-text terms, a category, a manufacturer prefix, and a
// result limit. Spec-key ranges and a stock-level minimum are narrow
// predicates layered over the base candidate set rather than separate SQL
// predicates, since they operate over JSON columns that SQLite cannot
// index meaningfully. There is no price-range criterion: Search does not
// filter on price.
type SearchFilter struct {
	FreeText             string
	Category             model.Category
	ManufacturerPrefix   string
	MinStockLevel        int
	SpecRanges           map[string][2]float64
	Limit                int
}

// SearchResult pairs a Component with its relevance score.
type SearchResult struct {
	Component *model.Component
	Score     float64
}

// Search returns components matching filter, ordered by descending
// relevance score and tie-broken by part_number ascending (spec.md §4.1).
func (s *Store) Search(filter SearchFilter) ([]SearchResult, error) {
	candidates, err := s.candidatesFor(filter)
	if err != nil {
		return nil, err
	}

	terms := tokenize(filter.FreeText)
	var results []SearchResult
	for _, c := range candidates {
		if !passesSpecRanges(c, filter.SpecRanges) {
			continue
		}
		if filter.MinStockLevel > 0 && (c.Availability == nil || c.Availability.StockLevel < filter.MinStockLevel) {
			continue
		}
		score := relevanceScore(c, filter.FreeText, terms, filter.Category, filter.ManufacturerPrefix)
		results = append(results, SearchResult{Component: c, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Component.PartNumber < results[j].Component.PartNumber
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// candidatesFor narrows to rows plausibly worth scoring: a manufacturer or
// category predicate is pushed to SQL when present, otherwise the whole
// table is scanned. Free text is scored in Go, not SQL, since relevance
// mixes several weighted signals SQLite's LIKE can't express directly.
func (s *Store) candidatesFor(filter SearchFilter) ([]*model.Component, error) {
	query := "SELECT " + componentColumns + " FROM components WHERE 1=1"
	var args []any
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.ManufacturerPrefix != "" {
		query += " AND manufacturer LIKE ?"
		args = append(args, filter.ManufacturerPrefix+"%")
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &StoreError{Kind: Io, Cause: err}
	}
	defer rows.Close()
	return scanComponents(rows)
}

// relevanceScore implements spec.md §4.1's weighted sum: exact
// part-number match 1.0; prefix match on part-number 0.6; full-text hit
// on description 0.3 per distinct term; manufacturer match 0.2; category
// match 0.1; clamped to [0, 1].
func relevanceScore(c *model.Component, freeText string, terms []string, category model.Category, manufacturerPrefix string) float64 {
	var score float64

	if freeText != "" {
		lowerPart := strings.ToLower(c.PartNumber)
		lowerQuery := strings.ToLower(freeText)
		if lowerPart == lowerQuery {
			score += 1.0
		} else if strings.HasPrefix(lowerPart, lowerQuery) {
			score += 0.6
		}

		lowerDesc := strings.ToLower(c.Description)
		hits := 0
		for _, term := range terms {
			if term == "" {
				continue
			}
			if strings.Contains(lowerDesc, term) {
				hits++
			}
		}
		score += 0.3 * float64(hits)
	}

	if category != "" && c.Category == category {
		score += 0.1
	}
	if manufacturerPrefix != "" && strings.HasPrefix(strings.ToLower(c.Manufacturer), strings.ToLower(manufacturerPrefix)) {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func passesSpecRanges(c *model.Component, ranges map[string][2]float64) bool {
	for key, bounds := range ranges {
		v, ok := c.SpecLookup(key)
		if !ok || v.Kind != model.SpecNumber {
			return false
		}
		if v.Number < bounds[0] || v.Number > bounds[1] {
			return false
		}
	}
	return true
}
