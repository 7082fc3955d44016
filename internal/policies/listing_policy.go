package policies

import (
	"strings"

	"emsdk/internal/types"
)

// ListingPolicy decides which registry entries `list` shows. Patterns are
// exact names, "prefix*" or "*"; an empty pattern list matches everything.
type ListingPolicy struct {
	ShowOld  bool
	exact    map[string]struct{}
	prefixes []string
	wildcard bool
}

func NewListingPolicy(showOld bool, patterns []string) ListingPolicy {
	policy := ListingPolicy{ShowOld: showOld, exact: map[string]struct{}{}}
	for _, pattern := range patterns {
		name, kind := parseNamePattern(pattern)
		switch kind {
		case patternWildcard:
			policy.wildcard = true
		case patternPrefix:
			policy.prefixes = append(policy.prefixes, name)
		case patternExact:
			policy.exact[name] = struct{}{}
		}
	}
	if len(patterns) == 0 {
		policy.wildcard = true
	}
	return policy
}

func (p ListingPolicy) Visible(tool types.Tool) bool {
	if tool.IsOld && !p.ShowOld {
		return false
	}
	return p.matches(tool)
}

func (p ListingPolicy) matches(tool types.Tool) bool {
	if p.wildcard {
		return true
	}
	name := tool.Name()
	if _, ok := p.exact[name]; ok {
		return true
	}
	if _, ok := p.exact[tool.ID]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternWildcard
	patternInvalid
)

func parseNamePattern(value string) (string, patternKind) {
	pattern := strings.TrimSpace(value)
	if pattern == "" {
		return "", patternInvalid
	}
	if pattern == "*" {
		return "", patternWildcard
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.TrimSuffix(pattern, "*"), patternPrefix
	}
	return pattern, patternExact
}
