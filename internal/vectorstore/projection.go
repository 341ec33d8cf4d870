package vectorstore

import (
	"sort"
	"strings"

	"github.com/kallenvale/circuitsage/internal/model"
)

// CanonicalText renders the deterministic textual projection of c that
// the embedding engine feeds to the inference server, per spec.md §4.2:
// "{category} | {part_number} | {manufacturer} | {description} |
// {spec_k1=v1; ...}" with spec keys sorted ascending, so that two calls
// over an unchanged Component always produce the same cache key.
func CanonicalText(c *model.Component) string {
	keys := make([]string, 0, len(c.Specifications))
	for k := range c.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var specs strings.Builder
	for i, k := range keys {
		if i > 0 {
			specs.WriteString("; ")
		}
		specs.WriteString(k)
		specs.WriteByte('=')
		specs.WriteString(c.Specifications[k].String())
	}

	return strings.Join([]string{
		string(c.Category),
		c.PartNumber,
		c.Manufacturer,
		c.Description,
		specs.String(),
	}, " | ")
}
