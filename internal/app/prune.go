package app

import (
	"context"
	"path"

	"github.com/rs/zerolog/log"

	"emsdk/internal/core"
	"emsdk/internal/types"
)

// CleanupDownloads trims the download cache to the retention policy.
func (s Service) CleanupDownloads(ctx context.Context, policy types.CacheRetentionPolicy) (CleanupResult, error) {
	layout := core.NewLayout(s.Options.Root, s.Options.Platform)
	dir := s.Options.Install.ZipsDir
	if dir == "" {
		dir = path.Join(layout.Root, "zips")
	}
	entries, err := s.Cache.List(layout.ToNativePath(dir))
	if err != nil {
		return CleanupResult{}, err
	}
	plan := BuildCachePrunePlan(entries, policy, timeNow(s.Clock))
	if policy.DryRun {
		result := CleanupResult{Kept: len(plan.Keep), DryRun: true}
		for _, entry := range plan.Delete {
			result.Deleted = append(result.Deleted, entry.Name)
		}
		return result, nil
	}
	var deleted []string
	for _, entry := range plan.Delete {
		if err := s.Cache.Delete(entry); err != nil {
			return CleanupResult{Kept: len(plan.Keep), Deleted: deleted}, err
		}
		log.Ctx(ctx).Debug().Str("file", entry.Path).Msg("removed cached download")
		deleted = append(deleted, entry.Name)
	}
	return CleanupResult{Kept: len(plan.Keep), Deleted: deleted}, nil
}
