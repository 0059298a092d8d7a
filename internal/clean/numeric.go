package clean

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a consumption cell written in either the en-US
// ("1,234.56") or id-ID ("1.234,56") convention. It returns false for the
// missing token, blank cells and anything that does not parse to a finite
// number.
//
// When both separators occur, the one appearing last is the decimal
// separator and the other is grouping. When only a comma occurs it is a
// decimal separator if one or two digits follow the last comma, otherwise
// grouping. That threshold is a heuristic: "1,234" always reads as 1234 and
// never as 1.234. Only digits, the two separators, a sign and an exponent
// are accepted, so forms such as hex floats do not parse.
func ParseNumber(s, missingToken string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (missingToken != "" && s == missingToken) {
		return 0, false
	}
	if strings.IndexFunc(s, notNumeric) >= 0 {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma < lastDot {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastComma >= 0:
		tail := len(s) - lastComma - 1
		if tail > 0 && tail <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func notNumeric(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return false
	case r == ',', r == '.', r == '+', r == '-', r == 'e', r == 'E':
		return false
	}
	return true
}

// ParseValue is ParseNumber returning a pointer, nil when the cell is null.
func ParseValue(s, missingToken string) *float64 {
	v, ok := ParseNumber(s, missingToken)
	if !ok {
		return nil
	}
	return &v
}

// FormatNumber renders v so that ParseNumber reads it back exactly.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
