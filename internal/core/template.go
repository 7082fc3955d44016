package core

import (
	"maps"
	"slices"
	"strings"
)

// ExpandTemplate replaces every %name% marker in s with vars[name]. Markers
// without a value are left untouched.
func ExpandTemplate(s string, vars map[string]string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		marker := "%" + name + "%"
		if strings.Contains(s, marker) {
			s = strings.ReplaceAll(s, marker, vars[name])
		}
	}
	return s
}

// SubstitutePlaceholder replaces a whole placeholder token (for example
// "%releases-tag%") and reports whether it occurred.
func SubstitutePlaceholder(s string, placeholder string, value string) (string, bool) {
	if !strings.Contains(s, placeholder) {
		return s, false
	}
	return strings.ReplaceAll(s, placeholder, value), true
}
