//go:build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"emsdk/internal/app"
	"emsdk/tests/testutil"
)

// archiveServerScript packs a node-like tree into a tarball and serves it
// over HTTP from /deps/.
const archiveServerScript = `
import http.server, io, os, socketserver, tarfile
os.makedirs("/srv/deps", exist_ok=True)
with tarfile.open("/srv/deps/node-v14.15.5.tar.gz", "w:gz") as tar:
    data = b"#!/bin/sh\necho v14.15.5\n"
    info = tarfile.TarInfo("node-v14.15.5-linux-x64/bin/node")
    info.size = len(data)
    info.mode = 0o755
    tar.addfile(info, io.BytesIO(data))
os.chdir("/srv")
socketserver.TCPServer.allow_reuse_address = True
with socketserver.TCPServer(("", 8081), http.server.SimpleHTTPRequestHandler) as httpd:
    httpd.serve_forever()
`

func TestE2EInstallFromContainerArchiveServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers e2e in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startArchiveServer(ctx, t)
	t.Cleanup(cleanup)

	root := t.TempDir()
	testutil.WriteSDKRoot(t, root, nodeManifest, emptyReleases)
	service := newIntegrationService(t, root, endpoint+"/deps/")

	result, err := service.Install(ctx, app.InstallRequest{Names: []string{"node-14.15.5-64bit"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"node-14.15.5-64bit"}, result.Installed)
	assert.FileExists(t, filepath.Join(root, "node", "14.15.5_64bit", "bin", "node"))

	inspected, err := service.Inspect(ctx, "node-14.15.5-64bit")
	require.NoError(t, err)
	require.NotNil(t, inspected.Receipt)
	assert.Equal(t, endpoint+"/deps/node-v14.15.5.tar.gz", inspected.Receipt.Source)
	assert.Len(t, inspected.Receipt.SHA256, 64)
}

func startArchiveServer(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8081/tcp"},
		Cmd:          []string{"python", "-c", archiveServerScript},
		WaitingFor:   wait.ForListeningPort("8081/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8081/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return endpoint, cleanup
}
