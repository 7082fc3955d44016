package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

func TestInspectInstalledTool(t *testing.T) {
	f := newServiceFixture(t)
	f.install(t, "latest")
	_, err := f.service.Activate(t.Context(), ActivateRequest{Names: []string{"latest"}, Embedded: true})
	require.NoError(t, err)

	result, err := f.service.Inspect(t.Context(), "node-14.15.5-64bit")
	require.NoError(t, err)

	nodeDir := filepath.Join(f.root, "node", "14.15.5_64bit")
	assert.Equal(t, nodeDir, result.InstallPath)
	assert.Equal(t, "node-v14.15.5-linux-x64.tar.xz", result.DownloadURL)
	assert.Equal(t, []string{nodeDir + "/bin"}, result.Paths)
	assert.Equal(t, []types.EnvVar{{Key: "EMSDK_NODE", Value: nodeDir + "/bin/node"}}, result.Env)
	assert.True(t, result.Installed)
	assert.True(t, result.Active)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "node-14.15.5-64bit", result.Receipt.Tool)
	assert.Equal(t, "https://storage.example.invalid/deps/node-v14.15.5-linux-x64.tar.xz", result.Receipt.Source)
	assert.NotEmpty(t, result.Receipt.SHA256)
}

func TestInspectAliasAndUnavailable(t *testing.T) {
	f := newServiceFixture(t)

	sdk, err := f.service.Inspect(t.Context(), "latest")
	require.NoError(t, err)
	assert.Equal(t, latestSDK(), sdk.Name)
	assert.True(t, sdk.IsSDK)
	assert.False(t, sdk.Installed)
	assert.Nil(t, sdk.Receipt)

	cmake, err := f.service.Inspect(t.Context(), "cmake-3.99-64bit")
	require.NoError(t, err)
	assert.Contains(t, cmake.Unavailable, "python")
}
