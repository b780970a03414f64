package ingest

// convert.go provides parsing helpers for raw cell values.
//
// These functions handle the messy reality of user-provided CSV data:
// Excel formula prefixes (="value"), stray surrounding quotes, and a
// handful of timestamp formats. Parse failure is expressed through an
// ok/Valid result, never an error, so a bad cell becomes a row rejection
// at the ingestor boundary.

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the accepted order_date formats, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 15:04",
	"1/2/2006",
	"01/02/2006",
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return s
}

// ParseTimestamp parses s against the accepted timestamp layouts.
// Returns the zero time and false when no layout matches.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseID parses a strictly positive integer identifier.
func parseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseQuantity parses a strictly positive count that fits the store's
// 32-bit quantity column. Out-of-range values fail the parse instead of
// silently truncating.
func parseQuantity(s string) (int32, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil || n <= 0 {
		return 0, false
	}
	return int32(n), true
}

// parsePrice parses a strictly positive decimal amount.
func parsePrice(s string) (float64, bool) {
	if !PositiveDecimal(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cell returns the cleaned value of a column, and whether the column was
// present at all. Empty and absent both report ok=false: the taxonomy does
// not distinguish the two.
func cell(row RawRow, name string) (string, bool) {
	raw, ok := row[name]
	if !ok {
		return "", false
	}
	v := CleanCell(raw)
	return v, v != ""
}
