package simulate

import "strings"

// classifyVector maps a plot vector name to its result bucket per
// spec.md §4.8: "v(<node>)" -> node_voltages[<node>], "i(<designator>)"
// -> branch_currents[<designator>], and the sweep variable itself
// ("time", "frequency", or the DC source name) -> time_or_freq.
//
// Returns the bucket key ("voltage", "current", "sweep") and the name to
// index the per-bucket map under (empty for "sweep").
func classifyVector(name, sweepName string) (bucket, key string) {
	lower := strings.ToLower(name)
	if lower == strings.ToLower(sweepName) {
		return "sweep", ""
	}
	if n, ok := stripParen(lower, "v("); ok {
		return "voltage", n
	}
	if n, ok := stripParen(lower, "i("); ok {
		return "current", n
	}
	return "", ""
}

func stripParen(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s[len(prefix) : len(s)-1], true
}

// buildResult assembles a Result from the raw (name -> values) vectors a
// completed analysis produced, given the name of the sweep vector.
func buildResult(vectors map[string][]float64, sweepName string) Result {
	result := Result{
		NodeVoltages:   make(map[string][]float64),
		BranchCurrents: make(map[string][]float64),
	}
	for name, values := range vectors {
		bucket, key := classifyVector(name, sweepName)
		switch bucket {
		case "sweep":
			result.TimeOrFreq = values
		case "voltage":
			result.NodeVoltages[key] = values
		case "current":
			result.BranchCurrents[key] = values
		}
	}
	return result
}
