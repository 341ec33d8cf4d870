package circuit

import "strings"

// Emit produces the canonical textual form of g: one title line, elements
// in insertion order, model definitions, directives, and a trailing
// ".end" — deterministic byte-for-byte for a given graph (spec.md §4.6,
// §6). Emit(Parse(s)) parses back to a graph equal to Parse(s) even when
// s was not itself canonical.
func Emit(g *Graph) string {
	var b strings.Builder

	b.WriteString(g.Title)
	b.WriteString("\n")

	for _, e := range g.Elements {
		b.WriteString(e.Designator)
		for _, n := range e.Nodes {
			b.WriteString(" ")
			b.WriteString(string(n))
		}
		b.WriteString(" ")
		b.WriteString(e.Value)
		if e.ModelName != "" {
			b.WriteString(" ")
			b.WriteString(e.ModelName)
		}
		b.WriteString("\n")
	}

	for _, m := range g.ModelDefs {
		b.WriteString(m)
		b.WriteString("\n")
	}

	for _, a := range g.Analyses {
		b.WriteString(a.Kind)
		for _, arg := range a.Args {
			b.WriteString(" ")
			b.WriteString(arg)
		}
		b.WriteString("\n")
	}

	b.WriteString(".end\n")

	return b.String()
}
