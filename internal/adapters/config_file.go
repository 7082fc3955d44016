package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/core"
	"emsdk/internal/ports"
	"emsdk/internal/types"
)

const SanityFile = ".emscripten_sanity"

// ConfigFileAdapter stores the configuration record (.emscripten).
type ConfigFileAdapter struct{}

func NewConfigFileAdapter() ConfigFileAdapter {
	return ConfigFileAdapter{}
}

// Load returns an empty record when the file does not exist yet.
func (a ConfigFileAdapter) Load(path string) (types.ConfigRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.ConfigRecord{}, nil
	}
	if err != nil {
		return types.ConfigRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read configuration file").
			WithCause(err)
	}
	return core.ParseConfigRecord(data), nil
}

func (a ConfigFileAdapter) Save(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create configuration directory").
			WithCause(err)
	}
	if previous, err := os.ReadFile(path); err == nil {
		backup := path + ".old"
		log.Debug().Str("backup", backup).Msg("backing up old configuration file")
		if err := writeFileAtomic(backup, previous); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg("failed to back up configuration file").
				WithCause(err)
		}
	}
	if err := writeFileAtomic(path, content); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to write configuration file").
			WithCause(err)
	}
	return nil
}

// Invalidate removes the sanity marker so emscripten re-checks its setup.
func (a ConfigFileAdapter) Invalidate(configDir string) error {
	err := os.Remove(filepath.Join(configDir, SanityFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to remove " + SanityFile).
			WithCause(err)
	}
	return nil
}

// writeFileAtomic writes to a sibling temp file and renames it over path, so
// readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

var _ ports.ConfigRecordPort = ConfigFileAdapter{}
