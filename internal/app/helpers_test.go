package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"emsdk/internal/adapters"
	"emsdk/internal/core"
	"emsdk/internal/types"
)

const (
	hashNew = "fc5562126762ab26c4757147a3b4c24e85a7289e"
	hashOld = "ce0e4a4d1cab395ee5082a60ebb4f3891a94b256"
)

var linux64 = types.Platform{OS: types.OSLinux, Arch: types.ArchX8664, Is64Bit: true}

const testManifest = `{
  "tools": [
    {
      "id": "node",
      "version": "14.15.5",
      "bitness": 64,
      "linux_url": "node-v14.15.5-linux-x64.tar.xz",
      "activated_path": "%installation_dir%/bin",
      "activated_cfg": "NODE_JS='%installation_dir%/bin/node%.exe%'",
      "activated_env": "EMSDK_NODE=%installation_dir%/bin/node%.exe%"
    },
    {
      "id": "releases",
      "version": "upstream-%releases-tag%",
      "bitness": 64,
      "linux_url": "https://storage.example.invalid/builds/linux/%releases-tag%/wasm-binaries.tbz2",
      "zipfile_prefix": "%releases-tag%-",
      "install_path": "upstream",
      "activated_path": "%installation_dir%/emscripten",
      "activated_cfg": "LLVM_ROOT='%installation_dir%/bin';BINARYEN_ROOT='%installation_dir%';EMSCRIPTEN_ROOT='%installation_dir%/emscripten'",
      "pregenerated_cache": ["sysroot"]
    },
    {
      "id": "cmake",
      "version": "3.99",
      "bitness": 64,
      "linux_url": "cmake-3.99.tar.gz",
      "activated_path": "%installation_dir%/bin",
      "host_requirements": {"python": ">=9.0"}
    }
  ],
  "sdks": [
    {
      "version": "releases-upstream-%releases-tag%",
      "bitness": 64,
      "uses": ["node-14.15.5-64bit", "releases-upstream-%releases-tag%-64bit"]
    }
  ]
}`

const testReleases = `{
  "latest": "2.0.14",
  "releases": {
    "2.0.13": "` + hashOld + `",
    "2.0.14": "` + hashNew + `"
  }
}`

// fetchRecorder writes a placeholder file for every download.
type fetchRecorder struct {
	urls []string
}

func (f *fetchRecorder) Fetch(_ context.Context, url string, dst string) error {
	f.urls = append(f.urls, url)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("payload"), 0o644)
}

// treeUnpacker lays down the same small tree for every archive.
type treeUnpacker struct {
	archives []string
}

func (u *treeUnpacker) Unpack(_ context.Context, archive string, destDir string, _ int) error {
	u.archives = append(u.archives, archive)
	for _, name := range []string{"bin/node", "emscripten/emcc", "lib/sysroot/libc.a"} {
		target := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte("x"), 0o755); err != nil {
			return err
		}
	}
	return nil
}

type stubVCS struct {
	available bool
	commits   []string
	clones    []string
}

func (v *stubVCS) CloneCheckout(_ context.Context, url string, dir string, branch string) error {
	v.clones = append(v.clones, url+"@"+branch)
	return os.MkdirAll(dir, 0o755)
}

func (v *stubVCS) RecentCommits(_ context.Context, _ string, n int) ([]string, error) {
	if n < len(v.commits) {
		return v.commits[:n], nil
	}
	return v.commits, nil
}

func (v *stubVCS) Available() bool { return v.available }

type noBuild struct{}

func (noBuild) Configure(context.Context, types.BuildRequest) error { return nil }
func (noBuild) Build(context.Context, types.BuildRequest) error     { return nil }

type noNPM struct{}

func (noNPM) CI(context.Context, string, string) error { return nil }

type stubHost struct {
	binaries map[string]string
}

func (h stubHost) LookPath(name string) (string, bool) {
	p, ok := h.binaries[name]
	return p, ok
}

func (h stubHost) Version(context.Context, string) (string, error) {
	return "", os.ErrNotExist
}

type stubProbe struct {
	published map[string]bool
	probed    []string
}

func (p *stubProbe) Exists(_ context.Context, url string) (bool, error) {
	p.probed = append(p.probed, url)
	return p.published[url], nil
}

type memoryGlobalEnv struct {
	values map[string]string
}

func (m *memoryGlobalEnv) Get(key string, _ bool) (string, error) {
	return m.values[key], nil
}

func (m *memoryGlobalEnv) Set(key string, value string, _ bool) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *memoryGlobalEnv) Delete(key string, _ bool) error {
	delete(m.values, key)
	return nil
}

type serviceFixture struct {
	root     string
	home     string
	env      map[string]string
	service  Service
	fetcher  *fetchRecorder
	unpacker *treeUnpacker
	vcs      *stubVCS
	probe    *stubProbe
	global   *memoryGlobalEnv
}

// newServiceFixture builds a service over a temp SDK root using the real
// file adapters and stubs for everything that leaves the machine.
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	root := t.TempDir()
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestFile), []byte(testManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, adapters.ReleasesTagsFile), []byte(testReleases), 0o644))

	f := &serviceFixture{
		root:     root,
		home:     home,
		env:      map[string]string{"PATH": "/usr/bin:/bin"},
		fetcher:  &fetchRecorder{},
		unpacker: &treeUnpacker{},
		vcs:      &stubVCS{available: true},
		probe:    &stubProbe{published: map[string]bool{}},
		global:   &memoryGlobalEnv{},
	}
	f.service = Service{
		Options: Options{
			Root:     root,
			Platform: linux64,
			HomeDir:  home,
			TempDir:  "/tmp",
			Shell:    types.ShellBash,
			Install: core.InstallOptions{
				PackagesURL: "https://storage.example.invalid/deps/",
			},
		},
		Manifests: adapters.NewManifestFileAdapter(),
		Tags:      adapters.NewTagsFileAdapter(root),
		FS:        adapters.NewFilesystemAdapter(),
		Fetcher:   f.fetcher,
		Unpacker:  f.unpacker,
		VCS:       f.vcs,
		Builder:   noBuild{},
		NPM:       noNPM{},
		Host:      stubHost{binaries: map[string]string{"node": "/usr/bin/node"}},
		Receipts:  adapters.NewReceiptFileAdapter(),
		Config:    adapters.NewConfigFileAdapter(),
		EnvScript: adapters.NewEnvScriptAdapter(),
		GlobalEnv: f.global,
		Cache:     adapters.NewDownloadCacheAdapter(),
		Probe:     f.probe,
		LookupEnv: func(key string) (string, bool) {
			value, ok := f.env[key]
			return value, ok
		},
	}
	return f
}

func (f *serviceFixture) install(t *testing.T, names ...string) {
	t.Helper()
	_, err := f.service.Install(t.Context(), InstallRequest{Names: names})
	require.NoError(t, err)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func latestSDK() string {
	return "sdk-releases-upstream-" + hashNew + "-64bit"
}
