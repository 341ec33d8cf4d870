// Package circuit implements the SPICE-subset netlist parser, emitter, and
// typed circuit graph model of spec.md §4.6.
package circuit

import (
	"strings"
)

var recognizedDirectives = map[string]bool{
	".DC": true, ".AC": true, ".TRAN": true, ".OP": true, ".END": true,
}

// Parse parses a SPICE-subset netlist into a Graph, per spec.md §4.6. Line
// kinds are recognized case-insensitively. The first non-blank line of the
// file is always the title, verbatim, regardless of its content.
func Parse(text string) (*Graph, error) {
	lines := strings.Split(text, "\n")

	g := NewGraph("")
	sawTitle := false
	designators := make(map[string]bool)

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if !sawTitle {
			if trimmed == "" {
				continue
			}
			g.Title = line
			sawTitle = true
			continue
		}

		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "*") {
			continue // comment
		}

		if strings.HasPrefix(trimmed, ".") {
			if err := parseDirectiveLine(g, trimmed, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		if err := parseElementLine(g, designators, trimmed, lineNo); err != nil {
			return nil, err
		}
	}

	if !sawTitle {
		return nil, newParseError(MalformedLine, 0, text, "empty netlist: no title line")
	}

	return g, nil
}

func parseDirectiveLine(g *Graph, line string, lineNo int) error {
	fields := strings.Fields(line)
	name := strings.ToUpper(fields[0])

	if name == ".MODEL" {
		if len(fields) < 3 {
			return newParseError(MalformedLine, lineNo, line, "MODEL directive requires a name and a type")
		}
		g.AddModelDef(line)
		return nil
	}

	if name == ".END" {
		return nil
	}

	if !recognizedDirectives[name] {
		return newParseError(UnknownDirective, lineNo, line, "unrecognized directive "+name)
	}

	g.AddAnalysis(name, fields[1:]...)
	return nil
}

func parseElementLine(g *Graph, designators map[string]bool, line string, lineNo int) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return newParseError(MalformedLine, lineNo, line, "element line has too few fields")
	}
	designator := fields[0]

	kind, ok := KindFromDesignator(designator)
	if !ok {
		return newParseError(MalformedLine, lineNo, line, "unrecognized designator prefix")
	}

	if designators[designator] {
		return newParseError(DuplicateDesignator, lineNo, line, "designator "+designator+" already used")
	}

	remaining := fields[1:]

	var nodeTokens []string
	var valueToken, modelToken string

	if kind == KindSubcircuit {
		if len(remaining) < 2 {
			return newParseError(ArityMismatchKind, lineNo, line, "subcircuit instance requires at least one node and a value")
		}
		nodeTokens = remaining[:len(remaining)-1]
		valueToken = remaining[len(remaining)-1]
	} else {
		arity := fixedArity[kind]
		switch len(remaining) {
		case arity + 1:
			nodeTokens = remaining[:arity]
			valueToken = remaining[arity]
		case arity + 2:
			nodeTokens = remaining[:arity]
			valueToken = remaining[arity]
			modelToken = remaining[arity+1]
		default:
			return newParseError(ArityMismatchKind, lineNo, line,
				"kind expects "+string(rune('0'+arity))+" node(s) plus a value and optional model")
		}
	}

	nodes := make([]NodeId, len(nodeTokens))
	for i, tok := range nodeTokens {
		if !validNodeName(tok) {
			return newParseError(InvalidNodeName, lineNo, line, "invalid node name "+tok)
		}
		nodes[i] = canonicalizeNode(NodeId(tok))
	}

	if _, err := ParseValue(valueToken); err != nil {
		return newParseError(MalformedLine, lineNo, line, err.Error())
	}

	if err := g.AddElement(designator, nodes, valueToken, modelToken); err != nil {
		return newParseError(MalformedLine, lineNo, line, err.Error())
	}
	designators[designator] = true

	return nil
}

func validNodeName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '*' || r == '.' || r <= ' ' {
			return false
		}
	}
	return true
}
