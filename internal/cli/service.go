package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/viper"

	"emsdk/internal/app"
	"emsdk/internal/core"
	"emsdk/internal/types"
)

var buildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}

// newAppService builds the service from the merged flag, environment and
// config file settings.
func newAppService() app.Service {
	platform := core.DetectPlatform()
	opts := app.Options{
		Root:          sdkRoot(),
		Platform:      platform,
		HomeDir:       viper.GetString("config_dir"),
		Shell:         detectShell(viper.GetString("shell"), os.LookupEnv),
		RecentCount:   viper.GetInt("recent_count"),
		CacheMaxFiles: viper.GetInt("cache_max_files"),
		RecentCommits: viper.GetInt("recent_commits"),
		ReleasesRepo:  viper.GetString("releases_repo"),
		ReleasesURL:   viper.GetString("releases_url"),
		UpdateURL:     viper.GetString("update_url"),
		BuildType:     viper.GetString("build_type"),
		Generator:     defaultGenerator(viper.GetString("generator")),
		Install: core.InstallOptions{
			PackagesURL: viper.GetString("packages_url"),
			Jobs:        defaultJobs(viper.GetInt("jobs")),
			BuildTests:  viper.GetBool("build_tests"),
			Assertions:  viper.GetString("assertions"),
		},
	}
	return app.NewService(opts, app.HTTPOptions{
		TimeoutSec:   viper.GetInt("http_timeout"),
		Retries:      viper.GetInt("http_retries"),
		RetryDelayMs: viper.GetInt("http_retry_delay_ms"),
		Shallow:      viper.GetBool("shallow"),
	})
}

// sdkRoot defaults to the directory holding the emsdk executable, falling
// back to the working directory.
func sdkRoot() string {
	if root := strings.TrimSpace(viper.GetString("root")); root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			return abs
		}
		return root
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// detectShell honours an explicit setting first, then the marker variables
// the emsdk wrapper scripts export.
func detectShell(configured string, lookup func(string) (string, bool)) types.Shell {
	switch types.Shell(strings.ToLower(strings.TrimSpace(configured))) {
	case types.ShellBash, types.ShellCsh, types.ShellPowerShell, types.ShellCmd:
		return types.Shell(strings.ToLower(strings.TrimSpace(configured)))
	}
	markers := []struct {
		env   string
		shell types.Shell
	}{
		{"EMSDK_BASH", types.ShellBash},
		{"EMSDK_CSH", types.ShellCsh},
		{"EMSDK_POWERSHELL", types.ShellPowerShell},
		{"EMSDK_CMD", types.ShellCmd},
	}
	for _, marker := range markers {
		if _, ok := lookup(marker.env); ok {
			return marker.shell
		}
	}
	if runtime.GOOS == "windows" {
		return types.ShellCmd
	}
	return types.ShellBash
}

func defaultJobs(jobs int) int {
	if jobs > 0 {
		return jobs
	}
	return max(runtime.NumCPU()-1, 1)
}

func defaultGenerator(generator string) string {
	if generator != "" {
		return generator
	}
	if runtime.GOOS == "windows" {
		return "Visual Studio 16"
	}
	return "Unix Makefiles"
}

// canonicalBuildType accepts any casing of the CMake build types.
func canonicalBuildType(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	for _, candidate := range buildTypes {
		if strings.EqualFold(candidate, value) {
			return candidate, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("unknown CMake build type '" + value + "' specified, expected one of " + strings.Join(buildTypes, ", "))
}
