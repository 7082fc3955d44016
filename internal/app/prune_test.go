package app

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

func writeCached(t *testing.T, dir string, name string, modTime time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(p, []byte("archive"), 0o644))
	require.NoError(t, os.Chtimes(p, modTime, modTime))
	return p
}

func TestCleanupDownloads(t *testing.T) {
	f := newServiceFixture(t)
	zips := filepath.Join(f.root, "zips")
	oldFile := writeCached(t, zips, "node-old.tar.xz", time.Now().Add(-2*time.Hour))
	newFile := writeCached(t, zips, "node-new.tar.xz", time.Now().Add(-1*time.Hour))

	result, err := f.service.CleanupDownloads(t.Context(), types.CacheRetentionPolicy{MaxFiles: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Kept)
	assert.Equal(t, []string{"node-old.tar.xz"}, result.Deleted)
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, newFile)
}

func TestCleanupDownloadsDryRun(t *testing.T) {
	f := newServiceFixture(t)
	zips := filepath.Join(f.root, "zips")
	oldFile := writeCached(t, zips, "a.zip", time.Now().Add(-2*time.Hour))
	writeCached(t, zips, "b.zip", time.Now().Add(-1*time.Hour))

	result, err := f.service.CleanupDownloads(t.Context(), types.CacheRetentionPolicy{MaxFiles: 1, DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, []string{"a.zip"}, result.Deleted)
	assert.FileExists(t, oldFile)
}

func TestCleanupDownloadsWithoutCache(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.CleanupDownloads(t.Context(), types.CacheRetentionPolicy{MaxFiles: 1})
	require.NoError(t, err)
	assert.Zero(t, result.Kept)
	assert.Empty(t, result.Deleted)
}

func TestCleanupDownloadsBoundsCache(t *testing.T) {
	f := newServiceFixture(t)
	zips := filepath.Join(f.root, "zips")
	now := time.Now()
	for i := range DefaultCacheMaxFiles + 10 {
		writeCached(t, zips, fmt.Sprintf("archive-%02d.tar.gz", i), now.Add(-time.Duration(i)*time.Minute))
	}
	aged := writeCached(t, zips, "archive-05.tar.gz", now.Add(-72*time.Hour))
	newest := filepath.Join(zips, "archive-00.tar.gz")

	result, err := f.service.CleanupDownloads(t.Context(), types.CacheRetentionPolicy{MaxFiles: DefaultCacheMaxFiles})
	require.NoError(t, err)
	assert.Len(t, result.Deleted, 10)

	entries, err := os.ReadDir(zips)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), DefaultCacheMaxFiles)
	assert.NoFileExists(t, aged)
	assert.FileExists(t, newest)
}
