// Package strings holds small slice helpers for string-keyed data.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value, drops empties, and keeps the first
// occurrence of each. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	return DedupeBy(trimAll(values), func(s string) string { return s })
}

// DedupeBy keeps the first item for each key. Items with an empty key are
// dropped. Order is preserved.
func DedupeBy[T any](items []T, key func(T) string) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
