package adapters

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"

	"emsdk/internal/ports"
)

// ArchiveAdapter unpacks the archive formats release payloads ship in.
type ArchiveAdapter struct{}

func NewArchiveAdapter() ArchiveAdapter {
	return ArchiveAdapter{}
}

func (a ArchiveAdapter) Unpack(ctx context.Context, archive string, destDir string, stripComponents int) error {
	log.Ctx(ctx).Info().Str("archive", archive).Str("dest", destDir).Msg("unpacking")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return unpackError(archive, err)
	}
	name := strings.ToLower(archive)
	var err error
	switch {
	case strings.HasSuffix(name, ".zip"):
		err = unzip(ctx, archive, destDir, stripComponents)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		err = untarWith(ctx, archive, destDir, stripComponents, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		err = untarWith(ctx, archive, destDir, stripComponents, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(name, ".tbz2"), strings.HasSuffix(name, ".tar.bz2"):
		err = untarWith(ctx, archive, destDir, stripComponents, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case strings.HasSuffix(name, ".tar"):
		err = untarWith(ctx, archive, destDir, stripComponents, func(r io.Reader) (io.Reader, error) {
			return r, nil
		})
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported archive format: " + filepath.Base(archive))
	}
	if err != nil {
		return unpackError(archive, err)
	}
	return nil
}

func unpackError(archive string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to unpack " + filepath.Base(archive)).
		WithCause(err)
}

func untarWith(ctx context.Context, archive string, destDir string, strip int, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := decompress(f)
	if err != nil {
		return err
	}
	tr := tar.NewReader(r)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target, ok, err := entryTarget(destDir, hdr.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		mode := os.FileMode(hdr.Mode).Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, mode|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, mode, tr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		case tar.TypeLink:
			linked, ok, err := entryTarget(destDir, hdr.Linkname, strip)
			if err != nil || !ok {
				return fmt.Errorf("invalid hard link %s -> %s", hdr.Name, hdr.Linkname)
			}
			_ = os.Remove(target)
			if err := os.Link(linked, target); err != nil {
				return err
			}
		}
	}
}

func unzip(ctx context.Context, archive string, destDir string, strip int) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()
	if strip > 0 && !zipSharesRoot(zr.File) {
		log.Ctx(ctx).Debug().Str("archive", archive).Msg("zip has no common top-level directory, keeping paths")
		strip = 0
	}
	for _, file := range zr.File {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		target, ok, err := entryTarget(destDir, file.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		mode := file.Mode().Perm()
		if mode == 0 {
			mode = 0o644
		}
		err = writeEntry(target, mode, rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// zipSharesRoot reports whether every entry sits below one top-level
// directory. Zips are not always packed with a wrapping folder.
func zipSharesRoot(files []*zip.File) bool {
	root := ""
	for _, file := range files {
		name := strings.TrimPrefix(strings.ReplaceAll(file.Name, `\`, "/"), "/")
		first, _, nested := strings.Cut(name, "/")
		if !nested || first == "" {
			return false
		}
		if root == "" {
			root = first
		} else if root != first {
			return false
		}
	}
	return root != ""
}

// entryTarget maps an archive entry to its path under destDir after dropping
// strip leading components. Entries that would escape destDir are rejected.
func entryTarget(destDir string, name string, strip int) (string, bool, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(parts) <= strip || (len(parts) == 1 && parts[0] == "") {
		return "", false, nil
	}
	rel := filepath.FromSlash(strings.Join(parts[strip:], "/"))
	target := filepath.Join(destDir, rel)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
		return "", false, fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, true, nil
}

func writeEntry(target string, mode os.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

var _ ports.UnpackPort = ArchiveAdapter{}
