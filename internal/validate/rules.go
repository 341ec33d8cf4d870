package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kallenvale/circuitsage/internal/circuit"
)

// valueBounds gives the [min, max] magnitude bounds per kind for the
// ComponentValueRange rule (spec.md §4.7 item 4). Kinds not present here
// (D, Q, X) carry no numeric range check.
var valueBounds = map[circuit.Kind][2]float64{
	circuit.KindResistor:      {1e-3, 1e9},
	circuit.KindCapacitor:     {1e-15, 1e0},
	circuit.KindInductor:      {1e-12, 1e3},
	circuit.KindVoltageSource: {-1e6, 1e6},
	circuit.KindCurrentSource: {-1e3, 1e3},
}

// Validate runs the fixed, ordered rule sequence of spec.md §4.7 over g and
// returns the accumulated report. Rules are independent: a failure in one
// does not prevent the others from running.
func Validate(g *circuit.Graph) *ValidationReport {
	r := &ValidationReport{}
	checkGroundReference(g, r)
	checkFloatingNode(g, r)
	checkDuplicateDesignator(g, r)
	checkComponentValueRange(g, r)
	checkShortCircuit(g, r)
	checkMissingPowerSource(g, r)
	checkNamingConflict(g, r)

	floating := 0
	for _, f := range r.Findings {
		if f.Rule == RuleFloatingNode {
			floating++
		}
	}
	r.Metrics = Metrics{
		ComponentCount: len(g.Elements),
		NodeCount:      len(g.Nodes()),
		BranchCount:    len(g.Elements),
		FloatingNodes:  floating,
	}
	return r
}

func checkGroundReference(g *circuit.Graph, r *ValidationReport) {
	if !g.HasNode(circuit.GroundNode) {
		r.add(RuleGroundReference, SeverityError, "missing")
	}
}

// checkFloatingNode flags every non-ground node touched by fewer than two
// distinct elements, in sorted node-name order for determinism.
func checkFloatingNode(g *circuit.Graph, r *ValidationReport) {
	degree := make(map[circuit.NodeId]map[string]struct{})
	for n := range g.Nodes() {
		degree[n] = make(map[string]struct{})
	}
	for _, e := range g.Elements {
		for _, n := range e.Nodes {
			degree[n][e.Designator] = struct{}{}
		}
	}

	var floating []string
	for n, touching := range degree {
		if n == circuit.GroundNode {
			continue
		}
		if len(touching) < 2 {
			floating = append(floating, string(n))
		}
	}
	sort.Strings(floating)
	for _, n := range floating {
		r.add(RuleFloatingNode, SeverityError, n)
	}
}

// checkDuplicateDesignator is a safety net: the parser and Graph.AddElement
// already reject duplicate designators, but a report consumer should not
// have to trust that every Graph in hand came through either path.
func checkDuplicateDesignator(g *circuit.Graph, r *ValidationReport) {
	seen := make(map[string]bool)
	for _, e := range g.Elements {
		if seen[e.Designator] {
			r.add(RuleDuplicateDesignator, SeverityError, e.Designator)
			continue
		}
		seen[e.Designator] = true
	}
}

func checkComponentValueRange(g *circuit.Graph, r *ValidationReport) {
	for _, e := range g.Elements {
		bounds, ok := valueBounds[e.Kind]
		if !ok {
			continue
		}
		v, err := circuit.ParseValue(e.Value)
		if err != nil {
			continue // malformed values are the parser's concern, not this rule's
		}
		if v < bounds[0] || v > bounds[1] {
			r.add(RuleComponentValueRange, SeverityWarning,
				fmt.Sprintf("%s value %s out of range [%g, %g]", e.Designator, e.Value, bounds[0], bounds[1]))
		}
	}
}

// checkShortCircuit flags pairs of independent voltage sources spanning the
// same two nodes with different values — an ideal-source conflict the
// simulator cannot resolve.
func checkShortCircuit(g *circuit.Graph, r *ValidationReport) {
	type span struct {
		pair  string
		value float64
		des   string
	}
	var spans []span
	for _, e := range g.Elements {
		if e.Kind != circuit.KindVoltageSource || len(e.Nodes) != 2 {
			continue
		}
		v, err := circuit.ParseValue(e.Value)
		if err != nil {
			continue
		}
		spans = append(spans, span{pair: nodePairKey(e.Nodes[0], e.Nodes[1]), value: v, des: e.Designator})
	}

	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].pair != spans[j].pair {
				continue
			}
			if spans[i].value != spans[j].value {
				r.add(RuleShortCircuit, SeverityError,
					fmt.Sprintf("%s,%s", spans[i].des, spans[j].des))
			}
		}
	}
}

func nodePairKey(a, b circuit.NodeId) string {
	if a > b {
		a, b = b, a
	}
	return string(a) + "," + string(b)
}

func checkMissingPowerSource(g *circuit.Graph, r *ValidationReport) {
	for _, e := range g.Elements {
		if e.Kind == circuit.KindVoltageSource || e.Kind == circuit.KindCurrentSource {
			return
		}
	}
	r.add(RuleMissingPowerSource, SeverityWarning, "circuit has no stimulus")
}

// checkNamingConflict flags designators that differ only in letter case
// (e.g. "r1" and "R1"), which a case-sensitive designator set would treat
// as distinct but which real SPICE tooling reports as ambiguous.
func checkNamingConflict(g *circuit.Graph, r *ValidationReport) {
	byUpper := make(map[string][]string)
	for _, e := range g.Elements {
		u := strings.ToUpper(e.Designator)
		byUpper[u] = append(byUpper[u], e.Designator)
	}

	var conflictKeys []string
	for u, names := range byUpper {
		if len(distinct(names)) > 1 {
			conflictKeys = append(conflictKeys, u)
		}
	}
	sort.Strings(conflictKeys)
	for _, u := range conflictKeys {
		names := distinct(byUpper[u])
		sort.Strings(names)
		r.add(RuleNamingConflict, SeverityWarning, strings.Join(names, ","))
	}
}

func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
