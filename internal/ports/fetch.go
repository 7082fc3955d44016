package ports

import "context"

// FetchPort downloads a URL to a local file. Implementations must never leave
// a partial download at dst.
type FetchPort interface {
	Fetch(ctx context.Context, url string, dst string) error
}

// UnpackPort extracts an archive into destDir, dropping the first
// stripComponents path elements of every entry. Zip archives are only
// stripped when all entries share one top-level directory.
type UnpackPort interface {
	Unpack(ctx context.Context, archive string, destDir string, stripComponents int) error
}
