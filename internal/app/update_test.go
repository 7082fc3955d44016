package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/adapters"
)

func buildURL(hash string) string {
	return "https://storage.googleapis.com/webassembly/emscripten-releases-builds/linux/" + hash + "/wasm-binaries.tbz2"
}

func TestUpdateTagsRecordsFirstPublishedCommit(t *testing.T) {
	f := newServiceFixture(t)
	f.vcs.commits = []string{"c3", "c2", "c1"}
	f.probe.published[buildURL("c2")] = true
	f.probe.published[buildURL("c1")] = true

	result, err := f.service.UpdateTags(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "c2", result.Tot)
	assert.Equal(t, []string{DefaultReleasesRepo + "@master"}, f.vcs.clones)
	assert.Equal(t, []string{buildURL("c3"), buildURL("c2")}, f.probe.probed)
	tot := readFile(t, filepath.Join(f.root, adapters.ReleasesTotFile))
	assert.Equal(t, "c2", strings.TrimSpace(tot))
}

func TestUpdateTagsWindowsProbesZip(t *testing.T) {
	f := newServiceFixture(t)
	f.service.Options.Platform.OS = "windows"
	assert.Equal(t,
		"https://storage.googleapis.com/webassembly/emscripten-releases-builds/win/abc/wasm-binaries.zip",
		f.service.releaseBuildURL("abc"))
}

func TestUpdateTagsWithoutPublishedBuild(t *testing.T) {
	f := newServiceFixture(t)
	f.vcs.commits = []string{"c1"}

	result, err := f.service.UpdateTags(t.Context())
	require.NoError(t, err)
	assert.Empty(t, result.Tot)
	assert.NoFileExists(t, filepath.Join(f.root, adapters.ReleasesTotFile))
}

func TestUpdateTagsWithoutGit(t *testing.T) {
	f := newServiceFixture(t)
	f.vcs.available = false

	result, err := f.service.UpdateTags(t.Context())
	require.NoError(t, err)
	assert.True(t, result.GitMissing)
	assert.Empty(t, f.vcs.clones)
}

func TestUpdateRefusesGitCheckout(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, ".git"), 0o755))

	_, err := f.service.Update(t.Context())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Empty(t, f.fetcher.urls)
}

func TestUpdateUnpacksSnapshotIntoRoot(t *testing.T) {
	f := newServiceFixture(t)
	f.vcs.available = false

	result, err := f.service.Update(t.Context())
	require.NoError(t, err)
	assert.True(t, result.GitMissing)
	assert.Equal(t, []string{DefaultUpdateURL}, f.fetcher.urls)
	assert.Equal(t, []string{filepath.Join(f.root, "zips", "master.zip")}, f.unpacker.archives)
	assert.FileExists(t, filepath.Join(f.root, "emscripten", "emcc"))
	assert.NoFileExists(t, filepath.Join(f.root, "zips", "master.zip"))
}
