package adapters

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

func TestCMakeArgsUnix(t *testing.T) {
	req := types.BuildRequest{
		SourceDir: "/src/llvm",
		BuildDir:  "/build",
		Generator: "Unix Makefiles",
		BuildType: "Release",
		Args:      []string{"-DLLVM_TARGETS_TO_BUILD=X86;WebAssembly"},
		Jobs:      8,
	}
	a := NewCMakeBuildAdapter()

	wantConfigure := []string{
		"-G", "Unix Makefiles",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DLLVM_TARGETS_TO_BUILD=X86;WebAssembly",
		"-S", "/src/llvm", "-B", "/build",
	}
	if diff := cmp.Diff(wantConfigure, a.ConfigureArgs(req)); diff != "" {
		t.Fatalf("unexpected configure args (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"--build", "/build", "--", "-j8"}, a.BuildArgs(req)); diff != "" {
		t.Fatalf("unexpected build args (-want +got):\n%s", diff)
	}
}

func TestCMakeBuildArgsVisualStudio(t *testing.T) {
	req := types.BuildRequest{
		SourceDir:      `C:\src`,
		BuildDir:       `C:\build`,
		Generator:      "Visual Studio 16",
		BuildType:      "RelWithDebInfo",
		TargetPlatform: "x64",
		Jobs:           8,
	}
	want := []string{`--build`, `C:\build`, "--config", "RelWithDebInfo", "--", "/p:Platform=x64", "/nologo", "/verbosity:minimal"}
	if diff := cmp.Diff(want, NewCMakeBuildAdapter().BuildArgs(req)); diff != "" {
		t.Fatalf("unexpected build args (-want +got):\n%s", diff)
	}
}

func TestCMakeBuildEnvOnDarwin(t *testing.T) {
	t.Setenv("CXXFLAGS", "-O2")
	env := CMakeBuildAdapter{GOOS: "darwin"}.buildEnv()
	assert.Contains(t, env, "CXXFLAGS=-O2 -stdlib=libc++")
}

func TestCMakeRejectsEmptyDirectories(t *testing.T) {
	err := NewCMakeBuildAdapter().Configure(t.Context(), types.BuildRequest{BuildDir: "/build"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
