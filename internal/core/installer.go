package core

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
	"emsdk/internal/types"
)

// ArchiveSuffixes select the download-and-unpack payload.
var ArchiveSuffixes = []string{"zip", ".tar", ".gz", ".xz", ".tbz2", ".bz2"}

func IsArchive(u string) bool {
	for _, suffix := range ArchiveSuffixes {
		if strings.HasSuffix(u, suffix) {
			return true
		}
	}
	return false
}

type InstallOptions struct {
	// PackagesURL is the base relative download URLs are resolved against.
	PackagesURL string
	// ZipsDir is the download cache directory.
	ZipsDir       string
	Jobs          int
	BuildTests    bool
	Assertions    string
	LLVMCMakeArgs []string
}

// Installer runs the per-tool lifecycle: not installed, installing,
// installed (stamped), and back through uninstall.
type Installer struct {
	Registry *Registry
	Layout   Layout
	FS       ports.FilesystemPort
	Fetcher  ports.FetchPort
	Unpacker ports.UnpackPort
	VCS      ports.VCSPort
	Builder  ports.BuildPort
	NPM      ports.NPMPort
	Host     ports.HostToolsPort
	// Receipts is optional; without it no install receipt is kept.
	Receipts ports.ReceiptPort
	Releases types.ReleasesInfo
	Options  InstallOptions
}

func (i Installer) IsInstalled(ctx context.Context, tool types.Tool) (bool, error) {
	return i.isInstalled(ctx, tool, false, map[string]bool{})
}

func (i Installer) isInstalled(ctx context.Context, tool types.Tool, skipVersionCheck bool, visiting map[string]bool) (bool, error) {
	visiting[tool.Name()] = true
	defer delete(visiting, tool.Name())

	for _, name := range tool.Uses {
		dep, ok := i.Registry.FindTool(name)
		if !ok {
			log.Ctx(ctx).Warn().
				Str("tool", tool.Name()).
				Str("dependency", name).
				Msg("manifest error: dependency not found")
			return false, nil
		}
		if visiting[dep.Name()] {
			continue
		}
		installed, err := i.isInstalled(ctx, dep, false, visiting)
		if err != nil || !installed {
			return false, err
		}
	}

	if i.Layout.DownloadURL(tool) == "" {
		return true, nil
	}

	installPath := i.Layout.InstallationPath(tool)
	activated := i.Layout.ActivatedPaths(tool)
	if len(activated) == 0 {
		activated = []string{installPath}
	}
	contentExists := i.FS.Exists(installPath) &&
		(i.FS.IsFile(installPath) || i.FS.CountEntries(installPath) > 0)
	for _, p := range activated {
		if !i.FS.Exists(p) {
			contentExists = false
			break
		}
	}

	switch tool.CustomIsInstalledScript {
	case "":
	case types.IsInstalledScriptOptimizer:
		return i.FS.Exists(i.Layout.OptimizerBuildRoot(tool)), nil
	case types.IsInstalledScriptBinaryen:
		return i.FS.Exists(i.Layout.BinaryenBuildRoot(tool)), nil
	default:
		return false, manifestError(fmt.Sprintf("unknown custom_is_installed_script %q in %s", tool.CustomIsInstalledScript, tool.Name()))
	}

	if !contentExists {
		return false, nil
	}
	if skipVersionCheck {
		return true, nil
	}
	return i.versionStampMatches(tool), nil
}

// versionStampMatches guards install directories shared by several versions:
// a stamp written by a sibling means this version is not the one on disk.
func (i Installer) versionStampMatches(tool types.Tool) bool {
	stampPath := i.Layout.VersionFilePath(tool)
	if !i.FS.IsFile(stampPath) {
		return true
	}
	data, err := i.FS.ReadFile(stampPath)
	if err != nil {
		return false
	}
	return string(data) == tool.Name()
}

func (i Installer) writeVersionStamp(tool types.Tool) error {
	installPath := i.Layout.InstallationPath(tool)
	if i.FS.IsFile(installPath) {
		return nil
	}
	return i.FS.WriteFile(i.Layout.VersionFilePath(tool), []byte(tool.Name()))
}

// CanBeInstalled returns a FailedPrecondition error carrying a human readable
// reason when the tool cannot be installed on this host.
func (i Installer) CanBeInstalled(ctx context.Context, tool types.Tool) error {
	if tool.Bitness == 64 && !i.Layout.Platform.Is64Bit {
		return unavailable(tool, "this tool is only provided for 64-bit OSes")
	}
	if i.Host == nil {
		return nil
	}
	if i.buildsFromSource(tool) {
		if _, ok := i.Host.LookPath("cmake"); !ok {
			return unavailable(tool, "cmake was not found on PATH")
		}
	}
	if tool.GitBranch != "" {
		if _, ok := i.Host.LookPath("git"); !ok {
			return unavailable(tool, "git was not found on PATH")
		}
	}
	for _, name := range slices.Sorted(maps.Keys(tool.HostRequirements)) {
		if err := i.checkHostRequirement(ctx, tool, name, tool.HostRequirements[name]); err != nil {
			return err
		}
	}
	return nil
}

func (i Installer) buildsFromSource(tool types.Tool) bool {
	switch tool.CustomInstallScript {
	case types.InstallScriptBuildFastcomp, types.InstallScriptBuildLLVMMonorepo,
		types.InstallScriptBuildBinaryen, types.InstallScriptEmscriptenPostInstall:
		return true
	}
	return tool.CMakeBuildType != ""
}

func (i Installer) checkHostRequirement(ctx context.Context, tool types.Tool, name string, spec string) error {
	specifiers, err := pep440.NewSpecifiers(spec)
	if err != nil {
		return manifestError(fmt.Sprintf("invalid host requirement %s%s in %s", name, spec, tool.Name()))
	}
	raw, err := i.Host.Version(ctx, name)
	if err != nil {
		return unavailable(tool, fmt.Sprintf("required host tool %s was not found", name))
	}
	version, err := pep440.Parse(raw)
	if err != nil {
		return unavailable(tool, fmt.Sprintf("cannot parse %s version %q", name, raw))
	}
	if !specifiers.Check(version) {
		return unavailable(tool, fmt.Sprintf("%s %s does not satisfy %s", name, raw, spec))
	}
	return nil
}

func (i Installer) Install(ctx context.Context, tool types.Tool) error {
	if err := i.CanBeInstalled(ctx, tool); err != nil {
		return err
	}
	if tool.IsSDK() {
		return i.installSDK(ctx, tool)
	}
	return i.installTool(ctx, tool)
}

func (i Installer) installSDK(ctx context.Context, sdk types.Tool) error {
	log.Ctx(ctx).Info().Str("sdk", sdk.Name()).Msg("installing SDK")
	for _, name := range sdk.Uses {
		dep, ok := i.Registry.FindTool(name)
		if !ok {
			return manifestError(fmt.Sprintf("no tool by name %q found, required by %s", name, sdk.Name()))
		}
		if err := i.Install(ctx, dep); err != nil {
			return err
		}
	}
	if sdk.CustomInstallScript == types.InstallScriptEmscriptenNPMInstall {
		backend := "fastcomp"
		if strings.Contains(sdk.Version, "releases-upstream") {
			backend = "upstream"
		}
		if err := i.npmInstall(ctx, sdk, i.Layout.SDKPath(path.Join(backend, "emscripten"))); err != nil {
			return err
		}
	}
	log.Ctx(ctx).Info().Str("sdk", sdk.Name()).Msg("done installing SDK")
	return nil
}

func (i Installer) installTool(ctx context.Context, tool types.Tool) error {
	installed, err := i.IsInstalled(ctx, tool)
	if err != nil {
		return err
	}
	if installed {
		log.Ctx(ctx).Info().Str("tool", tool.Name()).Msg("skipped installing, already installed")
		return nil
	}

	log.Ctx(ctx).Info().Str("tool", tool.Name()).Msg("installing tool")
	if err := i.obtainPayload(ctx, tool); err != nil {
		return err
	}
	if err := i.postInstall(ctx, tool); err != nil {
		return err
	}
	if err := i.writeReleaseVersion(tool); err != nil {
		return installFailure(tool, "failed to write emscripten-version.txt", err)
	}

	verified, err := i.isInstalled(ctx, tool, true, map[string]bool{})
	if err != nil {
		return err
	}
	if !verified {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("installation of %s failed, but no error was detected; this may indicate an internal emsdk error", tool.Name()))
	}
	i.writeReceipt(ctx, tool)
	i.cleanupTempInstallFiles(ctx, tool)
	if err := i.writeVersionStamp(tool); err != nil {
		return installFailure(tool, "failed to write version stamp", err)
	}
	log.Ctx(ctx).Info().Str("tool", tool.Name()).Msg("done installing tool")
	return nil
}

// obtainPayload picks the payload kind from the declared attributes.
func (i Installer) obtainPayload(ctx context.Context, tool types.Tool) error {
	u := i.Layout.DownloadURL(tool)
	installPath := i.Layout.InstallationPath(tool)
	switch {
	case tool.CustomInstallScript == types.InstallScriptBuildFastcomp:
		return i.buildFastcomp(ctx, tool)
	case tool.CustomInstallScript == types.InstallScriptBuildLLVMMonorepo:
		return i.buildLLVMMonorepo(ctx, tool)
	case tool.GitBranch != "":
		if err := i.VCS.CloneCheckout(ctx, u, installPath, tool.GitBranch); err != nil {
			return fetchFailure(tool, "git checkout failed", err)
		}
		return nil
	case IsArchive(u):
		// Release builds share one directory, so their archive always clobbers it.
		clobber := tool.ID == "releases"
		return i.downloadAndUnpack(ctx, tool, u, installPath, tool.ZipfilePrefix, clobber)
	default:
		target := downloadTarget(i.resolveURL(u), installPath, "")
		if i.FS.Exists(target) {
			log.Ctx(ctx).Info().Str("file", target).Msg("already downloaded, skipping")
			return nil
		}
		if err := i.Fetcher.Fetch(ctx, i.resolveURL(u), target); err != nil {
			return fetchFailure(tool, "download failed", err)
		}
		return nil
	}
}

func (i Installer) downloadAndUnpack(ctx context.Context, tool types.Tool, archiveURL string, destDir string, prefix string, clobber bool) error {
	if !clobber && i.FS.CountEntries(destDir) > 0 {
		log.Ctx(ctx).Info().
			Str("archive", archiveURL).
			Str("dest", destDir).
			Msg("archive contents already exist in destination, skipping")
		return nil
	}
	full := i.resolveURL(archiveURL)
	target := downloadTarget(full, i.Options.ZipsDir, prefix)
	if err := i.Fetcher.Fetch(ctx, full, target); err != nil {
		return fetchFailure(tool, "download failed", err)
	}
	if err := i.FS.RemoveAll(destDir); err != nil {
		return installFailure(tool, "failed to clear destination", err)
	}
	if err := i.Unpacker.Unpack(ctx, target, destDir, 1); err != nil {
		return installFailure(tool, "unpack failed", err)
	}
	return nil
}

func (i Installer) postInstall(ctx context.Context, tool types.Tool) error {
	switch tool.CustomInstallScript {
	case "", types.InstallScriptBuildFastcomp, types.InstallScriptBuildLLVMMonorepo:
		return nil
	case types.InstallScriptEmscriptenPostInstall:
		return i.buildOptimizer(ctx, tool)
	case types.InstallScriptEmscriptenNPMInstall:
		return i.npmInstall(ctx, tool, i.Layout.InstallationPath(tool))
	case types.InstallScriptBuildBinaryen:
		return i.buildBinaryen(ctx, tool)
	default:
		return manifestError(fmt.Sprintf("unknown custom_install_script %q in %s", tool.CustomInstallScript, tool.Name()))
	}
}

// writeReceipt records the payload origin. A receipt is informational, so a
// failure only warns.
func (i Installer) writeReceipt(ctx context.Context, tool types.Tool) {
	if i.Receipts == nil || !PathPointsToDirectory(i.Layout.InstallationPath(tool)) {
		return
	}
	receipt := types.InstallReceipt{Tool: tool.Name(), Version: tool.Version}
	u := i.Layout.DownloadURL(tool)
	switch {
	case tool.GitBranch != "":
		receipt.Source = u + "#" + tool.GitBranch
	case IsArchive(u):
		receipt.Source = i.resolveURL(u)
		receipt.Archive = i.Layout.ToNativePath(downloadTarget(receipt.Source, i.Options.ZipsDir, tool.ZipfilePrefix))
	case u != "":
		receipt.Source = i.resolveURL(u)
	}
	dir := i.Layout.ToNativePath(i.Layout.InstallationPath(tool))
	if err := i.Receipts.WriteReceipt(dir, receipt); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tool", tool.Name()).Msg("failed to write install receipt")
	}
}

// writeReleaseVersion drops emscripten-version.txt into release builds whose
// hash maps to a published version.
func (i Installer) writeReleaseVersion(tool types.Tool) error {
	if tool.ReleasesHash == "" {
		return nil
	}
	version, ok := i.Releases.VersionFor(tool.ReleasesHash)
	if !ok {
		return nil
	}
	paths := i.Layout.ActivatedPaths(tool)
	if len(paths) == 0 {
		return nil
	}
	return i.FS.WriteFile(path.Join(ToUnixPath(paths[0]), "emscripten-version.txt"), []byte(`"`+version+`"`))
}

func (i Installer) cleanupTempInstallFiles(ctx context.Context, tool types.Tool) {
	u := i.Layout.DownloadURL(tool)
	if !IsArchive(u) {
		return
	}
	target := downloadTarget(i.resolveURL(u), i.Options.ZipsDir, tool.ZipfilePrefix)
	log.Ctx(ctx).Debug().Str("file", target).Msg("deleting temporary archive")
	if err := i.FS.Remove(target); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("file", target).Msg("temporary archive not removed")
	}
}

func (i Installer) Uninstall(ctx context.Context, tool types.Tool) error {
	installed, err := i.IsInstalled(ctx, tool)
	if err != nil {
		return err
	}
	if !installed {
		log.Ctx(ctx).Info().Str("tool", tool.Name()).Msg("tool was not installed, no need to uninstall")
		return nil
	}
	log.Ctx(ctx).Info().Str("tool", tool.Name()).Msg("uninstalling tool")
	switch tool.CustomUninstallScript {
	case "":
	case types.UninstallScriptOptimizer:
		i.removeQuietly(ctx, i.Layout.OptimizerBuildRoot(tool))
	case types.UninstallScriptBinaryen:
		i.removeQuietly(ctx, i.Layout.BinaryenBuildRoot(tool))
	default:
		return manifestError(fmt.Sprintf("unknown custom_uninstall_script %q in %s", tool.CustomUninstallScript, tool.Name()))
	}
	i.removeQuietly(ctx, i.Layout.InstallationPath(tool))
	log.Ctx(ctx).Info().Str("tool", tool.Name()).Msg("done uninstalling")
	return nil
}

func (i Installer) removeQuietly(ctx context.Context, p string) {
	log.Ctx(ctx).Info().Str("path", p).Msg("deleting path")
	if err := i.FS.RemoveAll(p); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("failed to delete path")
	}
}

// LatestInstalled returns the newest installed tool of a family.
func (i Installer) LatestInstalled(ctx context.Context, id string) (types.Tool, bool) {
	tools := i.Registry.Tools()
	for idx := len(tools) - 1; idx >= 0; idx-- {
		if tools[idx].ID != id {
			continue
		}
		if installed, err := i.IsInstalled(ctx, tools[idx]); err == nil && installed {
			return tools[idx], true
		}
	}
	return types.Tool{}, false
}

func (i Installer) npmInstall(ctx context.Context, tool types.Tool, dir string) error {
	node, ok := i.LatestInstalled(ctx, "node")
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("failed to run npm ci for %s: please install node.js first", tool.Name()))
	}
	nodeBin := path.Join(i.Layout.InstallationPath(node), "bin")
	log.Ctx(ctx).Info().Str("dir", dir).Msg("running post-install step: npm ci")
	if err := i.NPM.CI(ctx, i.Layout.ToNativePath(nodeBin), i.Layout.ToNativePath(dir)); err != nil {
		return installFailure(tool, "npm ci failed", err)
	}
	return nil
}

func (i Installer) resolveURL(u string) string {
	if i.Options.PackagesURL == "" {
		return u
	}
	base, err := url.Parse(i.Options.PackagesURL)
	if err != nil {
		return u
	}
	ref, err := url.Parse(u)
	if err != nil {
		return u
	}
	return base.ResolveReference(ref).String()
}

// downloadTarget names the local file for a download: dst itself when it looks
// like a file, otherwise prefix plus the URL basename inside dst.
func downloadTarget(u string, dst string, prefix string) string {
	name := prefix + u[strings.LastIndex(u, "/")+1:]
	if PathPointsToDirectory(dst) {
		return path.Join(ToUnixPath(dst), name)
	}
	return ToUnixPath(dst)
}

func manifestError(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("manifest error: " + msg)
}

func unavailable(tool types.Tool, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("the tool %s is not available due to the reason: %s", tool.Name(), reason))
}

func fetchFailure(tool types.Tool, msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("installing %s: %s", tool.Name(), msg)).
		WithCause(cause)
}

func installFailure(tool types.Tool, msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("installing %s: %s", tool.Name(), msg)).
		WithCause(cause)
}

var _ ports.InstallStatePort = Installer{}
