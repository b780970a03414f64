package ingest

// validate.go provides the field-level predicates applied to raw cell
// values before insertion. The predicates never return an error: malformed
// and absent input collapse into the same rejection outcome, which keeps
// the per-row decision binary (accept or reject with a reason).

import (
	"math"
	"strconv"
	"strings"
)

// ValidEmail reports whether s has the shape local@domain.tld:
// exactly one '@', a non-empty local part, a domain containing a '.'
// with at least one character on each side, and no whitespace anywhere.
func ValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}

	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}

	// Some dot must sit strictly inside the domain, never first or last.
	domain := s[at+1:]
	if len(domain) < 3 {
		return false
	}
	return strings.Contains(domain[1:len(domain)-1], ".")
}

// PositiveDecimal reports whether s parses as a finite decimal number
// strictly greater than zero.
func PositiveDecimal(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f > 0
}

// PositiveInteger reports whether s parses as an integer strictly greater
// than zero.
func PositiveInteger(s string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return false
	}
	return n > 0
}
