package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
	"emsdk/internal/types"
)

// DownloadCacheAdapter manages the archives kept in the downloads directory.
type DownloadCacheAdapter struct{}

func NewDownloadCacheAdapter() DownloadCacheAdapter {
	return DownloadCacheAdapter{}
}

// List returns the regular files directly inside dir sorted by name. A
// missing directory is an empty cache.
func (a DownloadCacheAdapter) List(dir string) ([]types.CacheEntry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("download directory is empty")
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read download directory").
			WithCause(err)
	}
	var out []types.CacheEntry
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, types.CacheEntry{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a DownloadCacheAdapter) Delete(entry types.CacheEntry) error {
	if strings.TrimSpace(entry.Path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cache entry path is empty")
	}
	log.Debug().Str("file", entry.Path).Msg("deleting cached download")
	if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to delete cached download " + entry.Name).
			WithCause(err)
	}
	return nil
}

var _ ports.DownloadCachePort = DownloadCacheAdapter{}
