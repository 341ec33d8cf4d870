package circuit

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseValue parses a SPICE value token (a numeral with an optional
// engineering suffix) into its scaled magnitude, per spec.md §4.6 and the
// REDESIGN FLAG in spec.md §9: "M" is always milli and "MEG" is always
// mega; any other trailing alphabetic suffix is rejected rather than
// guessed at.
//
// Recognized suffixes (case-insensitive): T, G, MEG, K, M, U, N, P, F.
// Anything following the suffix (a unit name like "ohm" or "Hz") is
// ignored, matching real SPICE value grammar.
func ParseValue(token string) (float64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, &MalformedValueError{Token: token, Reason: "empty value"}
	}

	// Find where the numeral ends: optional sign, digits, optional
	// decimal point and fraction, optional exponent.
	i := 0
	n := len(token)
	if i < n && (token[i] == '+' || token[i] == '-') {
		i++
	}
	digitsStart := i
	for i < n && isDigit(token[i]) {
		i++
	}
	if i < n && token[i] == '.' {
		i++
		for i < n && isDigit(token[i]) {
			i++
		}
	}
	// Optional exponent: "e"/"E" counts as one only when at least one
	// digit follows it (after an optional sign); otherwise it is left to
	// the suffix check below.
	if i < n && (token[i] == 'e' || token[i] == 'E') {
		j := i + 1
		if j < n && (token[j] == '+' || token[j] == '-') {
			j++
		}
		k := j
		for k < n && isDigit(token[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	if i == digitsStart || (i == digitsStart+0 && digitsStart == n) {
		return 0, &MalformedValueError{Token: token, Reason: "no numeral found"}
	}

	numPart := token[:i]
	suffix := token[i:]

	v, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, &MalformedValueError{Token: token, Reason: "invalid numeral: " + err.Error()}
	}

	if suffix == "" {
		return v, nil
	}

	scale, consumed, ok := matchEngineeringSuffix(suffix)
	if !ok {
		return 0, &MalformedValueError{Token: token, Reason: "unrecognized suffix " + suffix}
	}
	_ = consumed
	return v * scale, nil
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// matchEngineeringSuffix matches the longest recognized suffix at the
// start of s (MEG before M), case-insensitively, and returns its scale
// factor. Trailing characters after the matched suffix (a unit name) are
// permitted and ignored.
func matchEngineeringSuffix(s string) (scale float64, consumed int, ok bool) {
	if len(s) >= 3 && strings.EqualFold(s[:3], "meg") {
		return 1e6, 3, true
	}
	if len(s) >= 1 {
		r, size := utf8.DecodeRuneInString(s)
		switch r {
		case 'T', 't':
			return 1e12, size, true
		case 'G', 'g':
			return 1e9, size, true
		case 'K', 'k':
			return 1e3, size, true
		case 'M':
			return 1e-3, size, true
		case 'm':
			return 1e-3, size, true
		case 'U', 'u', 'µ', 'μ':
			return 1e-6, size, true
		case 'N', 'n':
			return 1e-9, size, true
		case 'P', 'p':
			return 1e-12, size, true
		case 'F', 'f':
			return 1e-15, size, true
		}
	}
	return 0, 0, false
}

// MalformedValueError reports a value token that could not be parsed.
type MalformedValueError struct {
	Token  string
	Reason string
}

func (e *MalformedValueError) Error() string {
	return "malformed value " + strconv.Quote(e.Token) + ": " + e.Reason
}
