package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/types"
)

// DefaultRecentCount is how many trailing entries of a category list are
// considered current; older expansions are marked is_old.
const DefaultRecentCount = 2

// Category placeholders understood in manifest version strings.
const (
	PlaceholderTag           = "%tag%"
	PlaceholderPrecompiled   = "%precompiled_tag%"
	PlaceholderPrecompiled32 = "%precompiled_tag32%"
	PlaceholderPrecompiled64 = "%precompiled_tag64%"
	PlaceholderBinaryenTag   = "%binaryen_tag%"
	PlaceholderReleasesTag   = "%releases-tag%"
)

type Expander struct {
	Registry    *Registry
	RecentCount int
}

func NewExpander(registry *Registry, recentCount int) Expander {
	if recentCount <= 0 {
		recentCount = DefaultRecentCount
	}
	return Expander{Registry: registry, RecentCount: recentCount}
}

// Expand clones template once per category value and registers the clones.
// Values are ordered oldest first.
func (e Expander) Expand(ctx context.Context, placeholder string, values []string, template types.Tool, isSDK bool) error {
	for i, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		clone, found := substituteTool(template, placeholder, value)
		if !found {
			continue
		}
		clone.IsOld = i < len(values)-e.RecentCount
		for j, dep := range clone.Uses {
			clone.Uses[j] = strings.ReplaceAll(dep, placeholder, value)
		}

		passes, err := passesFilters(placeholder, value, clone.VersionFilter)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("version_filter of %s", template.Name())).
				WithCause(err)
		}
		if !passes {
			continue
		}

		if isSDK {
			if !e.dependenciesExist(clone) {
				continue
			}
			if _, exists := e.Registry.FindSDK(clone.Name()); exists {
				log.Ctx(ctx).Debug().Str("sdk", clone.Name()).Msg("sdk already in manifest, not adding twice")
				continue
			}
			if err := e.Registry.AddSDK(clone); err != nil {
				return err
			}
			continue
		}
		if _, exists := e.Registry.FindTool(clone.Name()); exists {
			log.Ctx(ctx).Debug().Str("tool", clone.Name()).Msg("tool already in manifest, not adding twice")
			continue
		}
		if err := e.Registry.AddTool(clone); err != nil {
			return err
		}
	}
	return nil
}

func (e Expander) dependenciesExist(sdk types.Tool) bool {
	for _, name := range sdk.Uses {
		if _, ok := e.Registry.FindTool(name); !ok {
			return false
		}
	}
	return true
}

func passesFilters(placeholder string, value string, filters []types.VersionFilter) (bool, error) {
	for _, filter := range filters {
		if filter.Placeholder != placeholder {
			continue
		}
		ok, err := CompareOp(value, filter.Op, filter.Reference)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// substituteTool clones the template and replaces the placeholder in every
// string field and extra attribute. found is false when nothing contained it.
func substituteTool(template types.Tool, placeholder string, value string) (types.Tool, bool) {
	clone := template.Clone()
	found := false
	for _, field := range stringFields(&clone) {
		if replaced, ok := SubstitutePlaceholder(*field, placeholder, value); ok {
			*field = replaced
			found = true
		}
	}
	for _, key := range slices.Sorted(maps.Keys(clone.Extra)) {
		if replaced, ok := SubstitutePlaceholder(clone.Extra[key], placeholder, value); ok {
			clone.Extra[key] = replaced
			found = true
		}
	}
	return clone, found
}

func stringFields(t *types.Tool) []*string {
	return []*string{
		&t.ID, &t.Version, &t.Arch, &t.OS,
		&t.URL, &t.WindowsURL, &t.OSXURL, &t.LinuxURL, &t.UnixURL,
		&t.InstallPath, &t.WindowsInstallPath,
		&t.ActivatedPath, &t.ActivatedCfg, &t.ActivatedEnv,
		&t.GitBranch, &t.CMakeBuildType,
		&t.CustomInstallScript, &t.CustomUninstallScript, &t.CustomIsInstalledScript,
		&t.ZipfilePrefix, &t.ReleasesHash,
	}
}

// BuildRegistry filters the manifest for the platform and expands every
// category placeholder against categories.
func BuildRegistry(ctx context.Context, manifest types.Manifest, categories types.Categories, layout Layout, recentCount int) (*Registry, error) {
	registry := NewRegistry()
	expander := NewExpander(registry, recentCount)
	lists := categoryLists(categories)

	for _, tool := range manifest.Tools {
		if !layout.Compatible(tool) {
			continue
		}
		if err := expandEntry(ctx, expander, lists, tool, false); err != nil {
			return nil, err
		}
	}
	for _, sdk := range manifest.SDKs {
		sdk.ID = types.SDKID
		if !layout.Compatible(sdk) {
			continue
		}
		if err := expandEntry(ctx, expander, lists, sdk, true); err != nil {
			return nil, err
		}
	}
	log.Ctx(ctx).Debug().
		Int("tools", len(registry.tools)).
		Int("sdks", len(registry.sdks)).
		Msg("manifest loaded")
	return registry, nil
}

type categoryList struct {
	placeholder string
	values      []string
}

// categoryLists keeps the lookup order the manifest relies on: the first
// placeholder found in a version wins.
func categoryLists(c types.Categories) []categoryList {
	precompiled := append(slices.Clone(c.PrecompiledTags32), c.PrecompiledTags64...)
	return []categoryList{
		{placeholder: PlaceholderTag, values: c.EmscriptenTags},
		{placeholder: PlaceholderPrecompiled, values: precompiled},
		{placeholder: PlaceholderPrecompiled32, values: c.PrecompiledTags32},
		{placeholder: PlaceholderPrecompiled64, values: c.PrecompiledTags64},
		{placeholder: PlaceholderBinaryenTag, values: c.BinaryenTags},
		{placeholder: PlaceholderReleasesTag, values: c.ReleasesTags},
	}
}

func expandEntry(ctx context.Context, expander Expander, lists []categoryList, entry types.Tool, isSDK bool) error {
	for _, list := range lists {
		if isSDK && list.placeholder == PlaceholderBinaryenTag {
			continue
		}
		if strings.Contains(entry.Version, list.placeholder) {
			return expander.Expand(ctx, list.placeholder, list.values, entry, isSDK)
		}
	}
	if isSDK {
		return expander.Registry.AddSDK(entry)
	}
	return expander.Registry.AddTool(entry)
}
