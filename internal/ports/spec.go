package ports

import "emsdk/internal/types"

type ManifestPort interface {
	LoadManifest(path string) (types.Manifest, error)
}
