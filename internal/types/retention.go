package types

import "time"

// CacheEntry is one downloaded archive in the zips directory.
type CacheEntry struct {
	Name    string
	Path    string
	ModTime time.Time
}

// CacheRetentionPolicy bounds the download cache. An entry survives when it
// is among the MaxFiles newest and, with KeepDays set, younger than KeepDays.
type CacheRetentionPolicy struct {
	MaxFiles int
	KeepDays int
	DryRun   bool
}

type CachePrunePlan struct {
	Keep   []CacheEntry
	Delete []CacheEntry
}
