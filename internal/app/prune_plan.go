package app

import (
	"sort"
	"time"

	"emsdk/internal/types"
)

// BuildCachePrunePlan splits the cached downloads into the ones to keep and
// the ones to delete. Both lists keep the input order.
func BuildCachePrunePlan(entries []types.CacheEntry, policy types.CacheRetentionPolicy, now time.Time) types.CachePrunePlan {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	normalized := normalizeRetentionPolicy(policy)

	sorted := append([]types.CacheEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.After(sorted[j].ModTime)
		}
		return sorted[i].Name < sorted[j].Name
	})

	// KeepDays narrows the newest MaxFiles, it never adds to them.
	var cutoff time.Time
	if normalized.KeepDays > 0 {
		cutoff = now.AddDate(0, 0, -normalized.KeepDays)
	}
	keep := map[string]struct{}{}
	limit := min(normalized.MaxFiles, len(sorted))
	for _, entry := range sorted[:limit] {
		if !cutoff.IsZero() && (entry.ModTime.IsZero() || entry.ModTime.Before(cutoff)) {
			continue
		}
		keep[entry.Path] = struct{}{}
	}

	var plan types.CachePrunePlan
	for _, entry := range entries {
		if _, ok := keep[entry.Path]; ok {
			plan.Keep = append(plan.Keep, entry)
		} else {
			plan.Delete = append(plan.Delete, entry)
		}
	}
	return plan
}

func normalizeRetentionPolicy(policy types.CacheRetentionPolicy) types.CacheRetentionPolicy {
	normalized := policy
	if normalized.MaxFiles < 0 {
		normalized.MaxFiles = 0
	}
	if normalized.KeepDays < 0 {
		normalized.KeepDays = 0
	}
	return normalized
}
