package adapters

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"emsdk/internal/ports"
	"emsdk/internal/types"
)

// ManifestFileAdapter reads emsdk_manifest.json. The manifest is JSON, which
// yaml.v3 reads as a subset of YAML.
type ManifestFileAdapter struct{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{}
}

func (a ManifestFileAdapter) LoadManifest(path string) (types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found").
			WithCause(err)
	}
	var manifest types.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("error parsing emsdk_manifest.json").
			WithCause(err)
	}
	for i, tool := range manifest.Tools {
		if tool.ID == "" || tool.Version == "" {
			return types.Manifest{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest tool entry %d is missing id or version", i))
		}
	}
	return manifest, nil
}

var _ ports.ManifestPort = ManifestFileAdapter{}
