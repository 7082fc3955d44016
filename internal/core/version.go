package core

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"

	"emsdk/internal/types"
)

var versionSeparators = regexp.MustCompile(`[._-]`)

// VersionKey splits a version on '.', '_' and '-' into integer segments.
// A non-numeric segment is an error so callers cannot silently misorder.
func VersionKey(version string) ([]int, error) {
	parts := versionSeparators.Split(strings.TrimSpace(version), -1)
	key := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid version %q: segment %q is not numeric", version, part)).
				WithCause(err)
		}
		key = append(key, n)
	}
	return key, nil
}

// CompareVersions orders two versions by their numeric keys.
func CompareVersions(a string, b string) (int, error) {
	ka, err := VersionKey(a)
	if err != nil {
		return 0, err
	}
	kb, err := VersionKey(b)
	if err != nil {
		return 0, err
	}
	return slices.Compare(ka, kb), nil
}

// CompareOp evaluates "version op reference" for a version_filter entry.
func CompareOp(version string, op types.FilterOp, reference string) (bool, error) {
	cmp, err := CompareVersions(version, reference)
	if err != nil {
		return false, err
	}
	switch op {
	case types.FilterOpLte:
		return cmp <= 0, nil
	case types.FilterOpLt:
		return cmp < 0, nil
	case types.FilterOpGte:
		return cmp >= 0, nil
	case types.FilterOpGt:
		return cmp > 0, nil
	case types.FilterOpEq:
		return cmp == 0, nil
	case types.FilterOpNe:
		return cmp != 0, nil
	default:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version filter operator %q", op))
	}
}

// SortTags returns tags ordered oldest to newest. Tags fall into three
// kinds, ordered kind first: Debian-style versions, other numeric keys
// VersionKey accepts, then everything else. Within a kind the natural order
// applies and plain string order breaks ties, so the result does not depend
// on input order.
func SortTags(tags []string) []string {
	cache := newTagCache()
	out := slices.Clone(tags)
	slices.SortStableFunc(out, cache.compare)
	return out
}

// CompareTags orders two tags the way SortTags does.
func CompareTags(a string, b string) int {
	return newTagCache().compare(a, b)
}

const (
	tagKindDeb = iota
	tagKindNumeric
	tagKindOther
)

// tagCache memoizes parsed keys while sorting.
type tagCache struct {
	numeric map[string][]int
	deb     map[string]*debversion.Version
}

func newTagCache() *tagCache {
	return &tagCache{
		numeric: map[string][]int{},
		deb:     map[string]*debversion.Version{},
	}
}

func (c *tagCache) key(tag string) ([]int, bool) {
	if key, ok := c.numeric[tag]; ok {
		return key, key != nil
	}
	key, err := VersionKey(tag)
	if err != nil {
		c.numeric[tag] = nil
		return nil, false
	}
	c.numeric[tag] = key
	return key, true
}

func (c *tagCache) debVersion(tag string) *debversion.Version {
	if parsed, ok := c.deb[tag]; ok {
		return parsed
	}
	parsed, err := debversion.NewVersion(tag)
	if err != nil {
		c.deb[tag] = nil
		return nil
	}
	c.deb[tag] = &parsed
	return &parsed
}

func (c *tagCache) kind(tag string) int {
	if c.debVersion(tag) != nil {
		return tagKindDeb
	}
	if _, ok := c.key(tag); ok {
		return tagKindNumeric
	}
	return tagKindOther
}

func (c *tagCache) compare(a string, b string) int {
	kindA, kindB := c.kind(a), c.kind(b)
	if kindA != kindB {
		return kindA - kindB
	}
	switch kindA {
	case tagKindDeb:
		if cmp := c.debVersion(a).Compare(*c.debVersion(b)); cmp != 0 {
			return cmp
		}
	case tagKindNumeric:
		ka, _ := c.key(a)
		kb, _ := c.key(b)
		if cmp := slices.Compare(ka, kb); cmp != 0 {
			return cmp
		}
	}
	return strings.Compare(a, b)
}
