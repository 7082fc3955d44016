package app

import (
	"context"
	"os"
	"path"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"

	"emsdk/internal/adapters"
	"emsdk/internal/core"
	"emsdk/internal/ports"
	"emsdk/internal/types"
)

const (
	ManifestFile         = "emsdk_manifest.json"
	ConfigFile           = ".emscripten"
	DefaultCacheMaxFiles = 20
	DefaultRecentCount   = 2
	DefaultRecentCommits = 20
	DefaultPackagesURL   = "https://storage.googleapis.com/webassembly/emscripten-releases-builds/deps/"
	DefaultReleasesRepo  = "https://chromium.googlesource.com/emscripten-releases"
	DefaultReleasesURL   = "https://storage.googleapis.com/webassembly/emscripten-releases-builds/%s/%s/wasm-binaries.%s"
	DefaultUpdateURL     = "https://github.com/emscripten-core/emsdk/archive/master.zip"
)

// Options are the settings shared by every command.
type Options struct {
	Root     string
	Platform types.Platform
	// HomeDir receives the configuration record outside embedded mode.
	HomeDir       string
	TempDir       string
	Shell         types.Shell
	RecentCount   int
	CacheMaxFiles int
	RecentCommits int
	BuildType     string
	Generator     string
	ReleasesRepo  string
	ReleasesURL   string
	UpdateURL     string
	Install       core.InstallOptions
}

// Service wires the ports every command uses.
type Service struct {
	Options   Options
	Manifests ports.ManifestPort
	Tags      ports.TagSourcePort
	FS        ports.FilesystemPort
	Fetcher   ports.FetchPort
	Unpacker  ports.UnpackPort
	VCS       ports.VCSPort
	Builder   ports.BuildPort
	NPM       ports.NPMPort
	Host      ports.HostToolsPort
	Receipts  ports.ReceiptPort
	Config    ports.ConfigRecordPort
	EnvScript ports.EnvScriptPort
	GlobalEnv ports.GlobalEnvPort
	Cache     ports.DownloadCachePort
	Probe     ports.ReleaseProbePort
	// LookupEnv reads the calling shell's environment.
	LookupEnv func(key string) (string, bool)
	Clock     func() time.Time
}

// HTTPOptions tune the download and probe adapters.
type HTTPOptions struct {
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
	Shallow      bool
}

func NewService(opts Options, httpOpts HTTPOptions) Service {
	return Service{
		Options:   opts,
		Manifests: adapters.NewManifestFileAdapter(),
		Tags:      adapters.NewTagsFileAdapter(opts.Root),
		FS:        adapters.NewFilesystemAdapter(),
		Fetcher:   adapters.NewHTTPFetchAdapter(httpOpts.TimeoutSec, httpOpts.Retries, httpOpts.RetryDelayMs),
		Unpacker:  adapters.NewArchiveAdapter(),
		VCS:       adapters.NewGitVCSAdapter(httpOpts.Shallow),
		Builder:   adapters.NewCMakeBuildAdapter(),
		NPM:       adapters.NewNPMAdapter(),
		Host:      adapters.NewHostToolsAdapter(),
		Receipts:  adapters.NewReceiptFileAdapter(),
		Config:    adapters.NewConfigFileAdapter(),
		EnvScript: adapters.NewEnvScriptAdapter(),
		GlobalEnv: adapters.NewGlobalEnvAdapter(),
		Cache:     adapters.NewDownloadCacheAdapter(),
		Probe:     adapters.NewHTTPReleaseProbe(httpOpts.TimeoutSec),
		LookupEnv: os.LookupEnv,
		Clock:     time.Now,
	}
}

// session is the state one command works against: the expanded registry and
// the components built on it.
type session struct {
	layout    core.Layout
	registry  *core.Registry
	releases  types.ReleasesInfo
	installer core.Installer
	resolver  core.ResolverCore
}

func (s Service) open(ctx context.Context) (session, error) {
	assert.NotEmpty(ctx, s.Options.Root, "sdk root must be set")
	layout := core.NewLayout(s.Options.Root, s.Options.Platform)
	layout.BuildType = s.Options.BuildType
	layout.Generator = s.Options.Generator

	manifest, err := s.Manifests.LoadManifest(layout.ToNativePath(path.Join(layout.Root, ManifestFile)))
	if err != nil {
		return session{}, err
	}
	categories, err := s.Tags.LoadCategories()
	if err != nil {
		return session{}, err
	}
	releases, err := s.Tags.LoadReleases()
	if err != nil {
		return session{}, err
	}
	registry, err := core.BuildRegistry(ctx, manifest, categories, layout, s.recentCount())
	if err != nil {
		return session{}, err
	}

	installOpts := s.Options.Install
	if installOpts.ZipsDir == "" {
		installOpts.ZipsDir = path.Join(layout.Root, "zips") + "/"
	}
	if installOpts.PackagesURL == "" {
		installOpts.PackagesURL = DefaultPackagesURL
	}
	installer := core.Installer{
		Registry: registry,
		Layout:   layout,
		FS:       s.FS,
		Fetcher:  s.Fetcher,
		Unpacker: s.Unpacker,
		VCS:      s.VCS,
		Builder:  s.Builder,
		NPM:      s.NPM,
		Host:     s.Host,
		Receipts: s.Receipts,
		Releases: releases,
		Options:  installOpts,
	}
	return session{
		layout:    layout,
		registry:  registry,
		releases:  releases,
		installer: installer,
		resolver:  core.NewResolverCore(registry, installer),
	}, nil
}

func (s Service) recentCount() int {
	if s.Options.RecentCount <= 0 {
		return DefaultRecentCount
	}
	return s.Options.RecentCount
}

func (s Service) lookupEnv(key string) (string, bool) {
	if s.LookupEnv == nil {
		return "", false
	}
	return s.LookupEnv(key)
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
