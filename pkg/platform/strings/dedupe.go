// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims, lowercases and deduplicates values, dropping
// empty entries. Order is preserved.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitTrimLower splits a comma-separated list and normalizes it with
// DedupeAndTrimLower.
//
// Example:
//
//	SplitTrimLower(" Admin, ops ,admin")
//	// Returns: []string{"admin", "ops"}
func SplitTrimLower(csv string) []string {
	return DedupeAndTrimLower(strings.Split(csv, ","))
}
