package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
	"emsdk/internal/types"
)

// CMakeBuildAdapter runs "cmake" configure and build steps for tools built
// from source.
type CMakeBuildAdapter struct {
	Binary string
	GOOS   string
	Stdout io.Writer
	Stderr io.Writer
}

func NewCMakeBuildAdapter() CMakeBuildAdapter {
	return CMakeBuildAdapter{Binary: "cmake", GOOS: runtime.GOOS, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (a CMakeBuildAdapter) Configure(ctx context.Context, req types.BuildRequest) error {
	if err := validateBuildRequest(req); err != nil {
		return err
	}
	if err := os.MkdirAll(req.BuildDir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create build directory").
			WithCause(err)
	}
	return a.run(ctx, req, a.ConfigureArgs(req))
}

func (a CMakeBuildAdapter) Build(ctx context.Context, req types.BuildRequest) error {
	if err := validateBuildRequest(req); err != nil {
		return err
	}
	if req.Jobs > 1 {
		log.Ctx(ctx).Info().Int("jobs", req.Jobs).Msg("performing a parallel build")
	} else {
		log.Ctx(ctx).Info().Msg("performing a single-threaded build")
	}
	return a.run(ctx, req, a.BuildArgs(req))
}

// ConfigureArgs returns the cmake command line for the configure step.
func (a CMakeBuildAdapter) ConfigureArgs(req types.BuildRequest) []string {
	var args []string
	if req.Generator != "" {
		args = append(args, "-G", req.Generator)
	}
	if req.BuildType != "" {
		args = append(args, "-DCMAKE_BUILD_TYPE="+req.BuildType)
	}
	args = append(args, req.Args...)
	return append(args, "-S", req.SourceDir, "-B", req.BuildDir)
}

// BuildArgs returns the cmake command line for the build step. Visual Studio
// builds pick the configuration and platform through MSBuild properties; the
// job count is left to MSBuild there.
func (a CMakeBuildAdapter) BuildArgs(req types.BuildRequest) []string {
	args := []string{"--build", req.BuildDir}
	if strings.Contains(req.Generator, "Visual Studio") {
		args = append(args, "--config", req.BuildType, "--")
		args = append(args, "/p:Platform="+req.TargetPlatform, "/nologo", "/verbosity:minimal")
		return args
	}
	jobs := req.Jobs
	if jobs < 1 {
		jobs = 1
	}
	return append(args, "--", fmt.Sprintf("-j%d", jobs))
}

func (a CMakeBuildAdapter) run(ctx context.Context, req types.BuildRequest, args []string) error {
	binary := a.Binary
	if binary == "" {
		binary = "cmake"
	}
	log.Ctx(ctx).Debug().Str("dir", req.BuildDir).Strs("args", args).Msg("running cmake")
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = req.BuildDir
	cmd.Env = a.buildEnv()
	cmd.Stdout = writerOrDiscard(a.Stdout)
	cmd.Stderr = writerOrDiscard(a.Stderr)
	if err := cmd.Run(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("cmake failed in %s", req.BuildDir)).
			WithCause(err)
	}
	return nil
}

// buildEnv adds -stdlib=libc++ on macOS, which older Xcode toolchains need
// to build LLVM.
func (a CMakeBuildAdapter) buildEnv() []string {
	env := os.Environ()
	if a.GOOS != "darwin" {
		return env
	}
	flags := "-stdlib=libc++"
	if current := os.Getenv("CXXFLAGS"); current != "" {
		flags = current + " " + flags
	}
	return append(env, "CXXFLAGS="+flags)
}

func validateBuildRequest(req types.BuildRequest) error {
	if strings.TrimSpace(req.SourceDir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build source directory is empty")
	}
	if strings.TrimSpace(req.BuildDir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build directory is empty")
	}
	return nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

var _ ports.BuildPort = CMakeBuildAdapter{}
