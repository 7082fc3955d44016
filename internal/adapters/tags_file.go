package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"emsdk/internal/core"
	"emsdk/internal/ports"
	"emsdk/internal/types"
)

const (
	LegacyEmscriptenTagsFile = "legacy-emscripten-tags.txt"
	LegacyBinaryenTagsFile   = "legacy-binaryen-tags.txt"
	LLVMTags32File           = "llvm-tags-32bit.txt"
	LLVMTags64File           = "llvm-tags-64bit.txt"
	ReleasesTagsFile         = "emscripten-releases-tags.txt"
	ReleasesTotFile          = "emscripten-releases-tot.txt"
)

// TagsFileAdapter reads the category lists kept next to the manifest in the
// SDK root. Results are cached for the lifetime of the adapter.
type TagsFileAdapter struct {
	Root           string
	cachedReleases types.ReleasesInfo
	loaded         bool
}

func NewTagsFileAdapter(root string) *TagsFileAdapter {
	return &TagsFileAdapter{Root: root}
}

func (a *TagsFileAdapter) LoadCategories() (types.Categories, error) {
	releases, err := a.LoadReleases()
	if err != nil {
		return types.Categories{}, err
	}
	// The tags file lists newest first; expansion and is_old expect oldest
	// first with tip-of-tree last.
	ordered := slices.Clone(releases.Releases)
	slices.SortStableFunc(ordered, func(a, b types.Release) int {
		return core.CompareTags(a.Version, b.Version)
	})
	releaseTags := make([]string, 0, len(ordered)+1)
	for _, release := range ordered {
		releaseTags = append(releaseTags, release.Hash)
	}
	if releases.Tot != "" {
		releaseTags = append(releaseTags, releases.Tot)
	}
	return types.Categories{
		EmscriptenTags:    a.readLines(LegacyEmscriptenTagsFile),
		BinaryenTags:      a.readLines(LegacyBinaryenTagsFile),
		PrecompiledTags32: a.readIndexList(LLVMTags32File),
		PrecompiledTags64: a.readIndexList(LLVMTags64File),
		ReleasesTags:      releaseTags,
	}, nil
}

func (a *TagsFileAdapter) LoadReleases() (types.ReleasesInfo, error) {
	if a.loaded {
		return a.cachedReleases, nil
	}
	data, err := os.ReadFile(filepath.Join(a.Root, ReleasesTagsFile))
	if err != nil {
		return types.ReleasesInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("error reading " + ReleasesTagsFile).
			WithCause(err)
	}
	info, err := parseReleasesInfo(data)
	if err != nil {
		return types.ReleasesInfo{}, err
	}
	if tot, err := os.ReadFile(filepath.Join(a.Root, ReleasesTotFile)); err == nil {
		info.Tot = strings.TrimSpace(string(tot))
	}
	a.cachedReleases = info
	a.loaded = true
	return info, nil
}

func (a *TagsFileAdapter) WriteTot(hash string) error {
	if err := writeFileAtomic(filepath.Join(a.Root, ReleasesTotFile), []byte(hash)); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + ReleasesTotFile).
			WithCause(err)
	}
	a.loaded = false
	return nil
}

// parseReleasesInfo walks the document node so releases keep file order.
func parseReleasesInfo(data []byte) (types.ReleasesInfo, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.ReleasesInfo{}, releasesFormatError(err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return types.ReleasesInfo{}, releasesFormatError(errors.New("top level is not an object"))
	}
	var info types.ReleasesInfo
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "latest":
			info.Latest = value.Value
		case "releases":
			if value.Kind != yaml.MappingNode {
				return types.ReleasesInfo{}, releasesFormatError(errors.New("releases is not an object"))
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				info.Releases = append(info.Releases, types.Release{
					Version: value.Content[j].Value,
					Hash:    value.Content[j+1].Value,
				})
			}
		}
	}
	return info, nil
}

func releasesFormatError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("error parsing " + ReleasesTagsFile).
		WithCause(err)
}

// readLines returns the raw lines of an optional list file.
func (a *TagsFileAdapter) readLines(name string) []string {
	data, err := os.ReadFile(filepath.Join(a.Root, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", name).Msg("failed to read tag list")
		}
		return nil
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// readIndexList turns an archive file listing into versions, oldest first.
func (a *TagsFileAdapter) readIndexList(name string) []string {
	var items []string
	for _, line := range a.readLines(name) {
		item := strings.TrimPrefix(line, "emscripten-llvm-e")
		item = strings.TrimSuffix(item, ".tar.gz")
		item = strings.TrimSuffix(item, ".zip")
		item = strings.TrimSpace(item)
		if item == "" || strings.Contains(item, "latest") {
			continue
		}
		items = append(items, item)
	}
	return core.SortTags(items)
}

var _ ports.TagSourcePort = (*TagsFileAdapter)(nil)
