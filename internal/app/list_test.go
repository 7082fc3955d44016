package app

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findEntry(t *testing.T, entries []ListEntry, name string) ListEntry {
	t.Helper()
	for _, entry := range entries {
		if entry.Name == name {
			return entry
		}
	}
	t.Fatalf("entry %s not listed", name)
	return ListEntry{}
}

func TestListBeforeInstall(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.List(t.Context(), ListRequest{})
	require.NoError(t, err)

	assert.Equal(t, "2.0.14", result.LatestVersion)
	assert.Equal(t, hashNew, result.LatestHash)
	assert.True(t, result.Precompiled)
	assert.False(t, result.LatestInstalled)
	assert.False(t, result.FromGit)
	want := []ReleaseEntry{
		{Version: "2.0.14", Hash: hashNew},
		{Version: "2.0.13", Hash: hashOld},
	}
	if diff := cmp.Diff(want, result.Releases); diff != "" {
		t.Fatalf("unexpected releases (-want +got):\n%s", diff)
	}
	assert.Len(t, result.SDKs, 2)
	cmake := findEntry(t, result.Tools, "cmake-3.99-64bit")
	assert.Contains(t, cmake.Unavailable, "required host tool python was not found")
	assert.False(t, cmake.Installed)
}

func TestListReportsInstalledAndActiveState(t *testing.T) {
	f := newServiceFixture(t)
	f.install(t, "latest")
	activated, err := f.service.Activate(t.Context(), ActivateRequest{Names: []string{"latest"}, Embedded: true})
	require.NoError(t, err)

	result, err := f.service.List(t.Context(), ListRequest{Uses: true})
	require.NoError(t, err)
	assert.True(t, result.LatestInstalled)
	assert.False(t, result.FastcompInstalled)
	assert.True(t, result.Releases[0].Installed)
	assert.False(t, result.Releases[1].Installed)

	sdk := findEntry(t, result.SDKs, latestSDK())
	assert.True(t, sdk.Installed)
	assert.True(t, sdk.Active)
	assert.Len(t, sdk.Uses, 2)

	node := findEntry(t, result.Tools, "node-14.15.5-64bit")
	assert.True(t, node.Installed)
	assert.True(t, node.Active)
	assert.False(t, node.EnvActive, "the calling shell has not sourced the environment yet")
	assert.False(t, node.InstalledAt.IsZero())

	f.env["PATH"] = activated.Change.Path
	for _, v := range activated.Change.Vars {
		f.env[v.Key] = v.Value
	}
	result, err = f.service.List(t.Context(), ListRequest{})
	require.NoError(t, err)
	node = findEntry(t, result.Tools, "node-14.15.5-64bit")
	assert.True(t, node.EnvActive)
	assert.Empty(t, node.Uses)

	old := findEntry(t, result.Tools, "releases-upstream-"+hashOld+"-64bit")
	assert.False(t, old.Installed, "release builds share a directory, the stamp tells them apart")
}

func TestListPatterns(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.List(t.Context(), ListRequest{Patterns: []string{"node*"}})
	require.NoError(t, err)
	assert.Empty(t, result.SDKs)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "node-14.15.5-64bit", result.Tools[0].Name)
}

func TestListFromGitCheckout(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, f.service.FS.WriteFile(filepath.Join(f.root, ".git", "HEAD"), []byte("ref: refs/heads/main\n")))

	result, err := f.service.List(t.Context(), ListRequest{})
	require.NoError(t, err)
	assert.True(t, result.FromGit)
}
