package simulate

import "fmt"

// analysisCommand renders a RunRequest into the engine control-language
// directive that starts it, in the same dot-card syntax spec.md §4.6
// describes for a netlist's analysis cards.
func analysisCommand(req RunRequest) (string, error) {
	switch req.Kind {
	case OperatingPoint:
		return ".op", nil
	case DC:
		if req.DC == nil {
			return "", fmt.Errorf("simulate: DC analysis requires DCParams")
		}
		p := req.DC
		return fmt.Sprintf(".dc %s %g %g %g", p.Source, p.Start, p.Stop, p.Step), nil
	case AC:
		if req.AC == nil {
			return "", fmt.Errorf("simulate: AC analysis requires ACParams")
		}
		p := req.AC
		return fmt.Sprintf(".ac %s %d %g %g", p.Sweep, p.Points, p.FStart, p.FStop), nil
	case Transient:
		if req.Transient == nil {
			return "", fmt.Errorf("simulate: Transient analysis requires TransientParams")
		}
		p := req.Transient
		cmd := fmt.Sprintf(".tran %g %g", p.TStep, p.TStop)
		if p.TStart != nil {
			cmd += fmt.Sprintf(" %g", *p.TStart)
			if p.TMax != nil {
				cmd += fmt.Sprintf(" %g", *p.TMax)
			}
		}
		return cmd, nil
	default:
		return "", fmt.Errorf("simulate: unknown analysis kind %q", req.Kind)
	}
}

// sweepVectorName names the independent variable an analysis produces,
// matching classifyVector's "sweep" bucket.
func sweepVectorName(req RunRequest) string {
	switch req.Kind {
	case DC:
		if req.DC != nil {
			return req.DC.Source
		}
		return ""
	case AC:
		return "frequency"
	case Transient:
		return "time"
	default:
		return ""
	}
}
