package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cells of an extracted table are loosely typed: strings from the PDF text layer,
// numbers when rows come from JSON or tests, nil for missing columns. The helpers
// below are the single coercion policy used by the pipeline.

// asCells returns the cells of a tabular row. Anything that is not a list is non-tabular.
func asCells(row any) ([]any, bool) {
	switch r := row.(type) {
	case []any:
		return r, true
	case []string:
		cells := make([]any, len(r))
		for i, s := range r {
			cells[i] = s
		}
		return cells, true
	default:
		return nil, false
	}
}

// cellAt returns the cell at i, or nil when the row is too short.
func cellAt(cells []any, i int) any {
	if i < 0 || i >= len(cells) {
		return nil
	}
	return cells[i]
}

// CellString renders a cell as text. Missing, zero and false values render as "".
func CellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == 0 || math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return CellString(float64(v))
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case bool:
		if !v {
			return ""
		}
		return "true"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ParseInt reads the leading integer of a cell ("18", " 18 ", "18/20", 18.7 all give 18).
// Cells without a leading integer give 0.
func ParseInt(cell any) int {
	s := strings.TrimSpace(CellString(cell))
	end := numberPrefix(s, false)
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParseFloat reads the leading decimal of a cell ("3", "1.5", "4.0cr" give 3, 1.5, 4).
// Cells without a leading number give 0.
func ParseFloat(cell any) float64 {
	s := strings.TrimSpace(CellString(cell))
	end := numberPrefix(s, true)
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// numberPrefix returns the length of the longest numeric prefix of s, or 0 if there is none.
func numberPrefix(s string, decimal bool) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if decimal && i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if decimal && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
