package ports

import (
	"context"

	"emsdk/internal/types"
)

// TagSourcePort reads the category lists stored in the SDK root.
type TagSourcePort interface {
	LoadCategories() (types.Categories, error)
	LoadReleases() (types.ReleasesInfo, error)
	WriteTot(hash string) error
}

type ReleaseProbePort interface {
	// Exists reports whether a build artifact is published at url.
	Exists(ctx context.Context, url string) (bool, error)
}

type DownloadCachePort interface {
	List(dir string) ([]types.CacheEntry, error)
	Delete(entry types.CacheEntry) error
}
