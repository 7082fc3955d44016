package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"emsdk/internal/types"
)

var linux64 = types.Platform{OS: types.OSLinux, Arch: types.ArchX8664, Is64Bit: true}

// osFS backs the filesystem port with a test temp dir.
type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (osFS) CountEntries(path string) int {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0
	}
	return len(entries)
}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osFS) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (osFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (osFS) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (osFS) CopyDir(src string, dst string) error {
	return os.CopyFS(dst, os.DirFS(src))
}

type fakeFetcher struct {
	urls []string
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, dst string) error {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return f.err
	}
	return osFS{}.WriteFile(dst, []byte("payload"))
}

// fakeUnpacker lays down the given relative files under destDir.
type fakeUnpacker struct {
	files    []string
	archives []string
}

func (f *fakeUnpacker) Unpack(_ context.Context, archive string, destDir string, _ int) error {
	f.archives = append(f.archives, archive)
	files := f.files
	if len(files) == 0 {
		files = []string{"README"}
	}
	for _, name := range files {
		if err := (osFS{}).WriteFile(filepath.Join(destDir, name), []byte("x")); err != nil {
			return err
		}
	}
	return nil
}

type fakeVCS struct {
	clones []string
}

func (f *fakeVCS) CloneCheckout(_ context.Context, url string, dir string, branch string) error {
	f.clones = append(f.clones, url+"@"+branch)
	return osFS{}.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("project(x)"))
}

func (f *fakeVCS) RecentCommits(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (f *fakeVCS) Available() bool { return true }

type fakeBuilder struct {
	requests []types.BuildRequest
	mkdirs   []string
}

func (f *fakeBuilder) Configure(_ context.Context, req types.BuildRequest) error {
	f.requests = append(f.requests, req)
	return os.MkdirAll(req.BuildDir, 0o755)
}

func (f *fakeBuilder) Build(context.Context, types.BuildRequest) error {
	for _, dir := range f.mkdirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

type fakeNPM struct {
	dirs []string
}

func (f *fakeNPM) CI(_ context.Context, _ string, dir string) error {
	f.dirs = append(f.dirs, dir)
	return nil
}

type fakeHost struct {
	binaries map[string]string
	versions map[string]string
}

func (f fakeHost) LookPath(name string) (string, bool) {
	p, ok := f.binaries[name]
	return p, ok
}

func (f fakeHost) Version(_ context.Context, name string) (string, error) {
	v, ok := f.versions[name]
	if !ok {
		return "", errors.New(name + " not found")
	}
	return v, nil
}

func mustRegistry(tools ...types.Tool) *Registry {
	registry := NewRegistry()
	for _, tool := range tools {
		if tool.IsSDK() {
			if err := registry.AddSDK(tool); err != nil {
				panic(err)
			}
			continue
		}
		if err := registry.AddTool(tool); err != nil {
			panic(err)
		}
	}
	return registry
}

func names(tools []types.Tool) []string {
	out := make([]string, 0, len(tools))
	for _, tool := range tools {
		out = append(out, tool.Name())
	}
	return out
}

type fakeReceipts struct {
	written map[string]types.InstallReceipt
}

func (f *fakeReceipts) WriteReceipt(dir string, receipt types.InstallReceipt) error {
	if f.written == nil {
		f.written = map[string]types.InstallReceipt{}
	}
	f.written[dir] = receipt
	return nil
}

func (f *fakeReceipts) ReadReceipt(dir string) (types.InstallReceipt, bool, error) {
	receipt, ok := f.written[dir]
	return receipt, ok, nil
}
