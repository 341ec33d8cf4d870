package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SpecValueKind tags the variant held by a SpecValue (spec.md §3).
type SpecValueKind string

const (
	SpecText    SpecValueKind = "text"
	SpecNumber  SpecValueKind = "number"
	SpecBoolean SpecValueKind = "boolean"
	SpecRange   SpecValueKind = "range"
)

// SpecValue is the tagged union of specification value shapes: Text,
// Number, Boolean, or Range(min, max). Numeric variants additionally carry
// the SI-scaled magnitude implied by a unit suffix (k, M, m, µ, n, p),
// parsed once at construction time.
type SpecValue struct {
	Kind SpecValueKind

	Text    string
	Number  float64
	Boolean bool
	Min     float64
	Max     float64

	// Raw is the original textual representation, preserved for display.
	Raw string
}

// NewTextSpec builds a Text SpecValue.
func NewTextSpec(s string) SpecValue { return SpecValue{Kind: SpecText, Text: s, Raw: s} }

// NewBooleanSpec builds a Boolean SpecValue.
func NewBooleanSpec(b bool) SpecValue { return SpecValue{Kind: SpecBoolean, Boolean: b} }

// NewNumberSpec builds a Number SpecValue from an already-scaled magnitude.
func NewNumberSpec(v float64) SpecValue { return SpecValue{Kind: SpecNumber, Number: v} }

// NewRangeSpec builds a Range SpecValue.
func NewRangeSpec(min, max float64) SpecValue { return SpecValue{Kind: SpecRange, Min: min, Max: max} }

// ParseNumberSpec parses a numeric spec value carrying an optional SI
// suffix (k, M, m, µ/u, n, p) into a Number SpecValue with the implicit
// scaled magnitude applied, per spec.md §3.
func ParseNumberSpec(s string) (SpecValue, error) {
	mag, err := ParseSIMagnitude(s)
	if err != nil {
		return SpecValue{}, err
	}
	return SpecValue{Kind: SpecNumber, Number: mag, Raw: s}, nil
}

// siSuffixes maps a component specification suffix to its scale factor.
// These are the component-spec SI suffixes of spec.md §3, distinct from
// the SPICE netlist engineering suffixes of §4.6 (notably: here "M" means
// mega, matching everyday SI usage for component specs like "10M ohm";
// the netlist value grammar instead reserves "M" for milli and requires
// "MEG" for mega — see internal/circuit/suffix.go).
var siSuffixes = map[byte]float64{
	'k': 1e3, 'K': 1e3,
	'M': 1e6,
	'm': 1e-3,
	'µ': 1e-6, 'u': 1e-6, 'U': 1e-6,
	'n': 1e-9, 'N': 1e-9,
	'p': 1e-12, 'P': 1e-12,
}

// ParseSIMagnitude parses a numeric string with an optional trailing SI
// suffix into its scaled float64 magnitude.
func ParseSIMagnitude(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("model: empty numeric spec value")
	}
	if numPart, ok := strings.CutSuffix(s, "µ"); ok && numPart != "" {
		v, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, fmt.Errorf("model: parse numeric spec %q: %w", s, err)
		}
		return v / 1e6, nil
	}
	last := s[len(s)-1]
	if scale, ok := siSuffixes[last]; ok && len(s) > 1 {
		numPart := s[:len(s)-1]
		v, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, fmt.Errorf("model: parse numeric spec %q: %w", s, err)
		}
		if scale < 1 {
			// Divide by the exact power of ten so "100n" yields the same
			// float64 as the literal 100e-9.
			return v / math.Round(1/scale), nil
		}
		return v * scale, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("model: parse numeric spec %q: %w", s, err)
	}
	return v, nil
}

// specValueJSON is the on-wire / on-disk envelope for a SpecValue.
type specValueJSON struct {
	Type    SpecValueKind `json:"type"`
	Text    string        `json:"text,omitempty"`
	Number  float64       `json:"number,omitempty"`
	Boolean bool          `json:"boolean,omitempty"`
	Min     float64       `json:"min,omitempty"`
	Max     float64       `json:"max,omitempty"`
	Raw     string        `json:"raw,omitempty"`
}

func (v SpecValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(specValueJSON{
		Type: v.Kind, Text: v.Text, Number: v.Number,
		Boolean: v.Boolean, Min: v.Min, Max: v.Max, Raw: v.Raw,
	})
}

func (v *SpecValue) UnmarshalJSON(data []byte) error {
	var raw specValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Kind = raw.Type
	v.Text = raw.Text
	v.Number = raw.Number
	v.Boolean = raw.Boolean
	v.Min = raw.Min
	v.Max = raw.Max
	v.Raw = raw.Raw
	return nil
}

// String renders the spec value for canonical-text projection (used by the
// embedding engine) and human display.
func (v SpecValue) String() string {
	switch v.Kind {
	case SpecText:
		return v.Text
	case SpecNumber:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case SpecBoolean:
		return strconv.FormatBool(v.Boolean)
	case SpecRange:
		return fmt.Sprintf("%s..%s", strconv.FormatFloat(v.Min, 'g', -1, 64), strconv.FormatFloat(v.Max, 'g', -1, 64))
	default:
		return ""
	}
}
