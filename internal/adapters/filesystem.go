package adapters

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"emsdk/internal/ports"
)

// FilesystemAdapter is the on-disk install tree.
type FilesystemAdapter struct{}

func NewFilesystemAdapter() FilesystemAdapter {
	return FilesystemAdapter{}
}

func (a FilesystemAdapter) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (a FilesystemAdapter) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (a FilesystemAdapter) CountEntries(path string) int {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0
	}
	return len(entries)
}

func (a FilesystemAdapter) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read " + path).
			WithCause(err)
	}
	return data, nil
}

func (a FilesystemAdapter) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create directory for " + path).
			WithCause(err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	return nil
}

func (a FilesystemAdapter) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to remove " + path).
			WithCause(err)
	}
	return nil
}

// Remove deletes a single file. A missing file is not an error.
func (a FilesystemAdapter) Remove(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodePermissionDenied).
		WithMsg("failed to remove " + path).
		WithCause(err)
}

// CopyDir copies a tree, keeping file modes and symlinks.
func (a FilesystemAdapter) CopyDir(src string, dst string) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy " + src + " to " + dst).
			WithCause(err)
	}
	return nil
}

func copyFile(src string, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

var _ ports.FilesystemPort = FilesystemAdapter{}
