package domain

import (
	"regexp"
	"strings"
)

// zipRe matches a canonical 5-digit US ZIP code.
var zipRe = regexp.MustCompile(`^\d{5}$`)

// NormalizeZip trims surrounding whitespace from a ZIP code.
func NormalizeZip(zip string) string {
	return strings.TrimSpace(zip)
}

// IsValidZip reports whether zip is a 5-digit US ZIP code after trimming.
// Callers validate before handing a ZIP to the aggregator; malformed input
// never reaches the pipeline.
func IsValidZip(zip string) bool {
	return zipRe.MatchString(NormalizeZip(zip))
}
