package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for search queries.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePostcode trims and uppercases a UK postcode.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
