// Package asin validates and extracts Amazon product identifiers.
//
// An ASIN is exactly 10 alphanumeric characters, conventionally starting
// with 'B'. Identifier extraction is best-effort throughout the pipeline:
// a candidate that fails the lexical check is dropped rather than rejected
// with an error, because a false negative only widens a query to store
// scope while propagated garbage would misroute it.
package asin

import (
	"regexp"
	"strings"
)

// Length is the fixed ASIN length.
const Length = 10

var (
	asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

	// Most ASINs start with B; try that shape first when scanning text.
	inTextB   = regexp.MustCompile(`\b(B[A-Z0-9]{9})\b`)
	inTextAny = regexp.MustCompile(`\b([A-Z0-9]{10})\b`)
)

// Normalize upper-cases and validates a candidate identifier.
// It returns ("", false) for any candidate failing the lexical format.
func Normalize(candidate string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(candidate))
	if len(c) != Length || !asinPattern.MatchString(c) {
		return "", false
	}
	return c, true
}

// FromText scans free text for an ASIN and returns the first match,
// or ("", false) when none is found.
func FromText(text string) (string, bool) {
	upper := strings.ToUpper(text)
	if m := inTextB.FindStringSubmatch(upper); m != nil {
		return m[1], true
	}
	if m := inTextAny.FindStringSubmatch(upper); m != nil {
		return Normalize(m[1])
	}
	return "", false
}
