package core

import (
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"emsdk/internal/types"
)

// Layout resolves where tools live under the SDK root and expands the
// %marker% templates in their manifest fields.
type Layout struct {
	Root       string
	Platform   types.Platform
	BuildType  string
	Generator  string
	MSBuildDir string
}

func NewLayout(root string, platform types.Platform) Layout {
	return Layout{Root: ToUnixPath(root), Platform: platform}
}

// DetectPlatform describes the running host.
func DetectPlatform() types.Platform {
	arch := types.NormalizeArch(runtime.GOARCH)
	return types.Platform{
		OS:      runtime.GOOS,
		Arch:    arch,
		Is64Bit: strings.HasSuffix(arch, "64"),
	}
}

func ToUnixPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func (l Layout) ToNativePath(p string) string {
	if l.Platform.IsWindows() {
		return strings.ReplaceAll(ToUnixPath(p), "/", `\`)
	}
	return ToUnixPath(p)
}

// SDKPath anchors relative paths at the SDK root.
func (l Layout) SDKPath(p string) string {
	if filepath.IsAbs(p) || path.IsAbs(ToUnixPath(p)) || isWindowsAbs(p) {
		return ToUnixPath(p)
	}
	return path.Join(l.Root, ToUnixPath(p))
}

func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '/' || p[2] == '\\')
}

// PathPointsToDirectory guesses from the suffix whether an install path names
// a file. Only the suffixes the downloader produces count as files.
func PathPointsToDirectory(p string) bool {
	if p == "." {
		return true
	}
	lastSlash := max(strings.LastIndex(p, "/"), strings.LastIndex(p, `\`))
	lastDot := strings.LastIndex(p, ".")
	if lastDot == -1 || lastDot < lastSlash {
		return true
	}
	switch p[lastDot:] {
	case ".exe", ".zip", ".txt":
		return false
	default:
		return true
	}
}

func (l Layout) InstallationPath(t types.Tool) string {
	if l.Platform.IsWindows() && t.WindowsInstallPath != "" {
		return l.SDKPath(l.ExpandVars(t, t.WindowsInstallPath))
	}
	if t.InstallPath != "" {
		return l.SDKPath(l.ExpandVars(t, t.InstallPath))
	}
	dir := t.Version
	if t.HasBitnessSuffix() {
		dir += fmt.Sprintf("_%dbit", t.Bitness)
	}
	return l.SDKPath(path.Join(t.ID, dir))
}

func (l Layout) InstallationDir(t types.Tool) string {
	dir := l.InstallationPath(t)
	if PathPointsToDirectory(dir) {
		return dir
	}
	return path.Dir(dir)
}

func (l Layout) VersionFilePath(t types.Tool) string {
	return path.Join(l.InstallationPath(t), ".emsdk_version")
}

// CMakeBuildType prefers the command line override.
func (l Layout) CMakeBuildType(t types.Tool) string {
	if l.BuildType != "" {
		return l.BuildType
	}
	return t.CMakeBuildType
}

func (l Layout) GeneratorPrefix() string {
	switch {
	case strings.HasPrefix(l.Generator, "Visual Studio 16"):
		return "_vs2019"
	case strings.HasPrefix(l.Generator, "Visual Studio 15"):
		return "_vs2017"
	case l.Generator == "MinGW Makefiles":
		return "_mingw"
	default:
		return ""
	}
}

// LLVMBuildDir is the build directory name, relative to the install path.
func (l Layout) LLVMBuildDir(t types.Tool) string {
	bitness := "_64"
	if t.Bitness == 32 {
		bitness = "_32"
	}
	name := t.Version
	if t.GitBranch != "" {
		name = strings.ReplaceAll(t.GitBranch, "/", "-")
	}
	return "build_" + name + l.GeneratorPrefix() + bitness
}

func (l Layout) LLVMBuildBinDir(t types.Tool) string {
	if l.Platform.IsWindows() && strings.Contains(l.Generator, "Visual Studio") {
		return path.Join(l.LLVMBuildDir(t), l.CMakeBuildType(t), "bin")
	}
	return path.Join(l.LLVMBuildDir(t), "bin")
}

func (l Layout) OptimizerBuildRoot(t types.Tool) string {
	return l.buildRoot(t, "optimizer")
}

func (l Layout) BinaryenBuildRoot(t types.Tool) string {
	return l.buildRoot(t, "binaryen")
}

func (l Layout) buildRoot(t types.Tool, kind string) string {
	root := strings.TrimRight(strings.TrimSpace(l.InstallationPath(t)), `/\`)
	return fmt.Sprintf("%s%s_%dbit_%s", root, l.GeneratorPrefix(), t.Bitness, kind)
}

// ExpandVars fills the tool-specific markers. Values are computed only for
// markers that occur, since some of them depend on the install path.
func (l Layout) ExpandVars(t types.Tool, s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	resolvers := map[string]func() string{
		"installation_dir":       func() string { return l.InstallationDir(t) },
		"generator_prefix":       l.GeneratorPrefix,
		".exe":                   l.Platform.ExeSuffix,
		"fastcomp_build_dir":     func() string { return l.LLVMBuildDir(t) },
		"fastcomp_build_bin_dir": func() string { return l.LLVMBuildBinDir(t) },
		"cmake_build_type_on_win": func() string {
			if l.Platform.IsWindows() {
				return l.CMakeBuildType(t) + "/"
			}
			return ""
		},
	}
	if l.Platform.IsWindows() {
		resolvers["MSBuildPlatformsDir"] = func() string { return l.MSBuildDir }
	}
	vars := map[string]string{}
	for name, resolve := range resolvers {
		if strings.Contains(s, "%"+name+"%") {
			vars[name] = resolve()
		}
	}
	return ExpandTemplate(s, vars)
}

// ActivatedConfig parses activated_cfg into ordered key/value pairs with the
// surrounding quotes stripped from values.
func (l Layout) ActivatedConfig(t types.Tool) []types.ConfigEntry {
	if t.ActivatedCfg == "" {
		return nil
	}
	expanded := ToUnixPath(l.ExpandVars(t, t.ActivatedCfg))
	var out []types.ConfigEntry
	for _, item := range strings.Split(expanded, ";") {
		key, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		out = append(out, types.ConfigEntry{
			Key:   strings.TrimSpace(key),
			Value: strings.Trim(strings.TrimSpace(value), "'"),
		})
	}
	return out
}

func (l Layout) ActivatedEnv(t types.Tool) []types.EnvVar {
	if t.ActivatedEnv == "" {
		return nil
	}
	var out []types.EnvVar
	for _, item := range strings.Split(l.ExpandVars(t, t.ActivatedEnv), ";") {
		key, value := ParseKeyValue(item)
		if key == "" {
			continue
		}
		out = append(out, types.EnvVar{Key: key, Value: l.ToNativePath(value)})
	}
	return out
}

// ActivatedPaths lists the PATH entries a tool contributes.
func (l Layout) ActivatedPaths(t types.Tool) []string {
	if t.ActivatedPath == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(l.ExpandVars(t, t.ActivatedPath), ";") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, l.ToNativePath(item))
	}
	return out
}

// DownloadURL picks the payload URL for the platform, or "" when the tool has
// nothing to download.
func (l Layout) DownloadURL(t types.Tool) string {
	p := l.Platform
	switch {
	case p.IsWindows() && t.WindowsURL != "":
		return t.WindowsURL
	case p.IsOSX() && t.OSXURL != "":
		return t.OSXURL
	case p.IsLinux() && t.LinuxURL != "":
		return t.LinuxURL
	case p.IsUnix() && t.UnixURL != "":
		return t.UnixURL
	default:
		return t.URL
	}
}

func (l Layout) archCompatible(t types.Tool) bool {
	return t.Arch == "" || t.Arch == l.Platform.Arch
}

// Compatible reports whether the entry applies to this platform at all.
func (l Layout) Compatible(t types.Tool) bool {
	p := l.Platform
	if t.OS != "" {
		if t.OS == "all" {
			return true
		}
		osMatch := (p.IsWindows() && strings.Contains(t.OS, "win")) ||
			(p.IsLinux() && (strings.Contains(t.OS, "linux") || strings.Contains(t.OS, "unix"))) ||
			(p.IsOSX() && (strings.Contains(t.OS, "osx") || strings.Contains(t.OS, "unix")))
		return osMatch && l.archCompatible(t)
	}
	if t.OSXURL == "" && t.WindowsURL == "" && t.UnixURL == "" && t.LinuxURL == "" {
		return true
	}
	switch {
	case p.IsOSX() && t.OSXURL != "" && l.archCompatible(t):
		return true
	case p.IsLinux() && t.LinuxURL != "" && l.archCompatible(t):
		return true
	case p.IsWindows() && (t.WindowsURL != "" || t.WindowsInstallPath != "") && l.archCompatible(t):
		return true
	case p.IsUnix() && t.UnixURL != "":
		return true
	}
	return t.URL != ""
}

// ParseKeyValue splits "KEY=value" at the first '='.
func ParseKeyValue(line string) (string, string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(key), strings.TrimSpace(value)
}
