package core

import (
	"context"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"emsdk/internal/types"
)

func (i Installer) buildFastcomp(ctx context.Context, tool types.Tool) error {
	srcRoot := path.Join(i.Layout.InstallationPath(tool), "src")
	if tool.GitBranch != "" {
		if err := i.VCS.CloneCheckout(ctx, i.Layout.DownloadURL(tool), srcRoot, tool.GitBranch); err != nil {
			return fetchFailure(tool, "git checkout of llvm failed", err)
		}
		for _, sub := range []string{"clang", "lld"} {
			u := tool.Extra[sub+"_url"]
			if u == "" {
				continue
			}
			if err := i.VCS.CloneCheckout(ctx, u, path.Join(srcRoot, "tools", sub), tool.GitBranch); err != nil {
				return fetchFailure(tool, "git checkout of "+sub+" failed", err)
			}
		}
	} else {
		if err := i.downloadAndUnpack(ctx, tool, i.Layout.DownloadURL(tool), srcRoot, "llvm-e", true); err != nil {
			return err
		}
		clangURL := tool.Extra["unix_clang_url"]
		if i.Layout.Platform.IsWindows() {
			clangURL = tool.Extra["windows_clang_url"]
		}
		if clangURL != "" {
			if err := i.downloadAndUnpack(ctx, tool, clangURL, path.Join(srcRoot, "tools", "clang"), "clang-e", true); err != nil {
				return err
			}
		}
	}

	targets := hostTargets(i.Layout.Platform.Arch)
	if tool.Extra["only_supports_wasm"] == "" {
		targets = append(targets, "JSBackend")
	}
	req := i.cmakeRequest(tool, srcRoot, path.Join(i.Layout.InstallationPath(tool), i.Layout.LLVMBuildDir(tool)))
	req.Args = append(req.Args, i.llvmArgs(tool, targets)...)
	req.Args = append(req.Args, i.Options.LLVMCMakeArgs...)
	return i.configureAndBuild(ctx, tool, req)
}

func (i Installer) buildLLVMMonorepo(ctx context.Context, tool types.Tool) error {
	llvmRoot := i.Layout.InstallationPath(tool)
	srcRoot := path.Join(llvmRoot, "src")
	if err := i.VCS.CloneCheckout(ctx, i.Layout.DownloadURL(tool), srcRoot, tool.GitBranch); err != nil {
		return fetchFailure(tool, "git checkout of llvm-project failed", err)
	}

	targets := append([]string{"WebAssembly"}, hostTargets(i.Layout.Platform.Arch)...)
	req := i.cmakeRequest(tool, path.Join(srcRoot, "llvm"), path.Join(llvmRoot, i.Layout.LLVMBuildDir(tool)))
	req.Args = append(req.Args, i.llvmArgs(tool, targets)...)
	req.Args = append(req.Args, `-DLLVM_ENABLE_PROJECTS="clang;clang;lld;lld"`)
	if strings.Contains(req.Generator, "Visual Studio") && (strings.Contains(req.Generator, "Visual Studio 16") || tool.Bitness == 64) {
		req.Args = append(req.Args, "-Thost=x64")
	}
	req.Args = append(req.Args, i.Options.LLVMCMakeArgs...)
	return i.configureAndBuild(ctx, tool, req)
}

// buildOptimizer compiles the asm.js optimizer shipped inside an emscripten
// checkout, then installs its node modules.
func (i Installer) buildOptimizer(ctx context.Context, tool types.Tool) error {
	installPath := i.Layout.InstallationPath(tool)
	req := i.cmakeRequest(tool, path.Join(installPath, "tools", "optimizer"), i.Layout.OptimizerBuildRoot(tool))
	if err := i.configureAndBuild(ctx, tool, req); err != nil {
		return err
	}
	return i.npmInstall(ctx, tool, installPath)
}

func (i Installer) buildBinaryen(ctx context.Context, tool types.Tool) error {
	srcRoot := i.Layout.InstallationPath(tool)
	buildRoot := i.Layout.BinaryenBuildRoot(tool)
	req := i.cmakeRequest(tool, srcRoot, buildRoot)
	if strings.Contains(req.Generator, "Visual Studio") && i.Options.BuildTests {
		req.Args = append(req.Args, "-DRUN_STATIC_ANALYZER=1")
	}
	if err := i.configureAndBuild(ctx, tool, req); err != nil {
		return err
	}
	for _, dir := range []string{"scripts", path.Join("src", "js")} {
		dst := path.Join(buildRoot, dir)
		if err := i.FS.RemoveAll(dst); err != nil {
			return installFailure(tool, "failed to clear "+dst, err)
		}
		if err := i.FS.CopyDir(path.Join(srcRoot, dir), dst); err != nil {
			return installFailure(tool, "failed to deploy "+dir, err)
		}
	}
	return nil
}

// cmakeRequest fills the parts every source build shares: generator,
// build type and the Visual Studio target architecture.
func (i Installer) cmakeRequest(tool types.Tool, srcDir string, buildDir string) types.BuildRequest {
	req := types.BuildRequest{
		SourceDir:      i.Layout.ToNativePath(srcDir),
		BuildDir:       i.Layout.ToNativePath(buildDir),
		Generator:      i.Layout.Generator,
		BuildType:      i.Layout.CMakeBuildType(tool),
		Jobs:           i.Options.Jobs,
		TargetPlatform: "Win32",
	}
	if tool.Bitness == 64 {
		req.TargetPlatform = "x64"
	}
	switch {
	case strings.Contains(req.Generator, "Visual Studio 16"):
		arch := "x86"
		if tool.Bitness == 64 {
			arch = "x64"
		}
		req.Args = append(req.Args, "-A", arch)
	case strings.Contains(req.Generator, "Visual Studio") && tool.Bitness == 64:
		req.Generator += " Win64"
	}
	return req
}

func (i Installer) llvmArgs(tool types.Tool, targets []string) []string {
	tests := onOff(i.Options.BuildTests)
	return []string{
		"-DLLVM_TARGETS_TO_BUILD=" + strings.Join(targets, ";"),
		"-DLLVM_INCLUDE_EXAMPLES=OFF",
		"-DCLANG_INCLUDE_EXAMPLES=OFF",
		"-DLLVM_INCLUDE_TESTS=" + tests,
		"-DCLANG_INCLUDE_TESTS=" + tests,
		"-DLLVM_ENABLE_ASSERTIONS=" + onOff(i.assertionsEnabled(tool)),
	}
}

// assertionsEnabled resolves "auto" to on for every build type except the
// optimized release ones.
func (i Installer) assertionsEnabled(tool types.Tool) bool {
	switch strings.ToLower(i.Options.Assertions) {
	case "on":
		return true
	case "off":
		return false
	}
	switch strings.ToLower(i.Layout.CMakeBuildType(tool)) {
	case "release", "minsizerel":
		return false
	default:
		return true
	}
}

func (i Installer) configureAndBuild(ctx context.Context, tool types.Tool, req types.BuildRequest) error {
	log.Ctx(ctx).Info().
		Str("tool", tool.Name()).
		Str("source", req.SourceDir).
		Str("build", req.BuildDir).
		Str("build_type", req.BuildType).
		Msg("configuring with cmake")
	if err := i.Builder.Configure(ctx, req); err != nil {
		return installFailure(tool, "cmake configure failed", err)
	}
	if err := i.Builder.Build(ctx, req); err != nil {
		return installFailure(tool, "cmake build failed", err)
	}
	return nil
}

func hostTargets(arch string) []string {
	switch arch {
	case types.ArchX86, types.ArchX8664:
		return []string{"X86"}
	case types.ArchARM:
		return []string{"ARM"}
	case types.ArchAArch64:
		return []string{"AArch64"}
	default:
		return nil
	}
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
