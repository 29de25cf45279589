package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern
// wrapped in slashes ("/fail.*/") is a regular expression; anything else is
// a case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Select keeps the items whose labels match any only pattern (all items when
// only is empty) and none of the skip patterns. Order is preserved.
func Select[T any](items []T, labels func(T) []string, only, skip []Pattern) []T {
	if len(items) == 0 {
		return nil
	}
	result := make([]T, 0, len(items))
	for _, item := range items {
		names := labels(item)
		if len(only) > 0 && !matchesAny(names, only) {
			continue
		}
		if len(skip) > 0 && matchesAny(names, skip) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func matchesAny(names []string, patterns []Pattern) bool {
	for _, pattern := range patterns {
		for _, name := range names {
			if pattern.Match(name) {
				return true
			}
		}
	}
	return false
}
