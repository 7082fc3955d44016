package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.AddTool(types.Tool{ID: "node", Version: "14.15.5", Bitness: 64}))

	err := registry.AddTool(types.Tool{ID: "node", Version: "14.15.5", Bitness: 64})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeAlreadyExists, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "node-14.15.5-64bit")
}

func TestRegistryFindPrefersTools(t *testing.T) {
	registry := mustRegistry(
		types.Tool{ID: "sdk", Version: "1.0"},
		types.Tool{ID: "node", Version: "12.9.1", Bitness: 64},
	)
	tool, ok := registry.Find("node-12.9.1-64bit")
	require.True(t, ok)
	assert.Equal(t, "node", tool.ID)

	sdk, ok := registry.Find("sdk-1.0")
	require.True(t, ok)
	assert.True(t, sdk.IsSDK())

	_, ok = registry.Find("missing-1.0")
	assert.False(t, ok)
}

func TestRegistryNeedsCompilationFollowsUses(t *testing.T) {
	registry := mustRegistry(
		types.Tool{ID: "llvm", Version: "git", CMakeBuildType: "Release"},
		types.Tool{ID: "emscripten", Version: "git", Uses: []string{"llvm-git"}},
		types.Tool{ID: "node", Version: "14.15.5"},
	)
	emscripten, _ := registry.FindTool("emscripten-git")
	node, _ := registry.FindTool("node-14.15.5")
	assert.True(t, registry.NeedsCompilation(emscripten))
	assert.False(t, registry.NeedsCompilation(node))
}

// ---------------------------------------------------------------------------
// Expansion
// ---------------------------------------------------------------------------

func TestExpandAppliesVersionFilter(t *testing.T) {
	registry := NewRegistry()
	expander := NewExpander(registry, DefaultRecentCount)
	template := types.Tool{
		ID:      "emscripten",
		Version: "%tag%",
		URL:     "https://example.invalid/%tag%.tar.gz",
		VersionFilter: []types.VersionFilter{
			{Placeholder: "%tag%", Op: types.FilterOpLte, Reference: "1.38.33"},
		},
	}

	err := expander.Expand(t.Context(), PlaceholderTag, []string{"1.38.20", "1.38.33", "1.39.0"}, template, false)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"emscripten-1.38.20", "emscripten-1.38.33"}, names(registry.Tools())); diff != "" {
		t.Fatalf("unexpected tools (-want +got):\n%s", diff)
	}
	tool, _ := registry.FindTool("emscripten-1.38.20")
	assert.Equal(t, "https://example.invalid/1.38.20.tar.gz", tool.URL)
}

func TestExpandMarksOldEntries(t *testing.T) {
	registry := NewRegistry()
	expander := NewExpander(registry, 2)
	template := types.Tool{ID: "binaryen", Version: "%binaryen_tag%"}

	err := expander.Expand(t.Context(), PlaceholderBinaryenTag, []string{"1", "2", "3", "4"}, template, false)
	require.NoError(t, err)

	old := map[string]bool{}
	for _, tool := range registry.Tools() {
		old[tool.Version] = tool.IsOld
	}
	if diff := cmp.Diff(map[string]bool{"1": true, "2": true, "3": false, "4": false}, old); diff != "" {
		t.Fatalf("unexpected is_old flags (-want +got):\n%s", diff)
	}
}

func TestExpandSubstitutesUsesAndExtra(t *testing.T) {
	registry := mustRegistry(types.Tool{ID: "releases-upstream", Version: "abc", Bitness: 64})
	expander := NewExpander(registry, DefaultRecentCount)
	template := types.Tool{
		ID:      "sdk",
		Version: "releases-upstream-%releases-tag%",
		Bitness: 64,
		Uses:    []string{"releases-upstream-%releases-tag%-64bit"},
		Extra:   map[string]string{"note": "built from %releases-tag%"},
	}

	err := expander.Expand(t.Context(), PlaceholderReleasesTag, []string{"abc", "def"}, template, true)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"sdk-releases-upstream-abc-64bit"}, names(registry.SDKs())); diff != "" {
		t.Fatalf("sdk without existing deps must be skipped (-want +got):\n%s", diff)
	}
	sdk, _ := registry.FindSDK("sdk-releases-upstream-abc-64bit")
	assert.Equal(t, "built from abc", sdk.Extra["note"])
	assert.Equal(t, "built from %releases-tag%", template.Extra["note"], "template must not be mutated")
}

func TestExpandSkipsExistingNames(t *testing.T) {
	registry := mustRegistry(types.Tool{ID: "emscripten", Version: "1.38.20"})
	expander := NewExpander(registry, DefaultRecentCount)

	err := expander.Expand(t.Context(), PlaceholderTag, []string{"1.38.20", "1.38.21"}, types.Tool{ID: "emscripten", Version: "%tag%"}, false)
	require.NoError(t, err)
	assert.Len(t, registry.Tools(), 2)
}

func TestExpandInvalidFilterIsManifestError(t *testing.T) {
	expander := NewExpander(NewRegistry(), DefaultRecentCount)
	template := types.Tool{
		ID:            "emscripten",
		Version:       "%tag%",
		VersionFilter: []types.VersionFilter{{Placeholder: "%tag%", Op: "~", Reference: "1.0"}},
	}
	err := expander.Expand(t.Context(), PlaceholderTag, []string{"1.0"}, template, false)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestBuildRegistryFiltersPlatformAndExpands(t *testing.T) {
	manifest := types.Manifest{
		Tools: []types.Tool{
			{ID: "node", Version: "14.15.5", Bitness: 64, LinuxURL: "node-linux.tar.xz", Arch: types.ArchX8664},
			{ID: "node", Version: "14.15.5", Bitness: 64, WindowsURL: "node-win.zip", Arch: types.ArchX8664, OS: "win"},
			{ID: "releases-upstream", Version: "%releases-tag%", Bitness: 64, LinuxURL: "%releases-tag%/wasm.tbz2"},
			{ID: "fastcomp-clang", Version: "e%precompiled_tag64%", Bitness: 64, LinuxURL: "clang-%precompiled_tag64%.tar.gz"},
		},
		SDKs: []types.Tool{
			{Version: "releases-upstream-%releases-tag%", Bitness: 64, Uses: []string{"node-14.15.5-64bit", "releases-upstream-%releases-tag%-64bit"}},
		},
	}
	categories := types.Categories{
		ReleasesTags:      []string{"aaa", "bbb"},
		PrecompiledTags64: []string{"1.38.30"},
	}

	registry, err := BuildRegistry(t.Context(), manifest, categories, NewLayout("/emsdk", linux64), DefaultRecentCount)
	require.NoError(t, err)

	wantTools := []string{
		"node-14.15.5-64bit",
		"releases-upstream-aaa-64bit",
		"releases-upstream-bbb-64bit",
		"fastcomp-clang-e1.38.30-64bit",
	}
	if diff := cmp.Diff(wantTools, names(registry.Tools())); diff != "" {
		t.Fatalf("unexpected tools (-want +got):\n%s", diff)
	}
	wantSDKs := []string{"sdk-releases-upstream-aaa-64bit", "sdk-releases-upstream-bbb-64bit"}
	if diff := cmp.Diff(wantSDKs, names(registry.SDKs())); diff != "" {
		t.Fatalf("unexpected sdks (-want +got):\n%s", diff)
	}
}

func TestBuildRegistryDuplicateIsFatal(t *testing.T) {
	manifest := types.Manifest{Tools: []types.Tool{
		{ID: "node", Version: "8.9.1", Bitness: 64},
		{ID: "node", Version: "8.9.1", Bitness: 64},
	}}
	_, err := BuildRegistry(t.Context(), manifest, types.Categories{}, NewLayout("/emsdk", linux64), DefaultRecentCount)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeAlreadyExists, errbuilder.CodeOf(err))
}
