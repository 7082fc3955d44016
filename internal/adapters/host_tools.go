package adapters

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
	"emsdk/internal/shared"
)

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// HostToolsAdapter inspects executables on the host PATH.
type HostToolsAdapter struct{}

func NewHostToolsAdapter() HostToolsAdapter {
	return HostToolsAdapter{}
}

func (a HostToolsAdapter) LookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// Version runs "<name> --version" and returns the first dotted version
// number in its output.
func (a HostToolsAdapter) Version(ctx context.Context, name string) (string, error) {
	p, ok := a.LookPath(name)
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("%s not found in PATH", name))
	}
	output, err := exec.CommandContext(ctx, p, "--version").CombinedOutput()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to run %s --version", name)).
			WithCause(shared.CommandError(output, err))
	}
	version := ParseToolVersion(string(output))
	if version == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("no version number in %s --version output", name))
	}
	log.Ctx(ctx).Debug().Str("tool", name).Str("version", version).Msg("detected host tool version")
	return version, nil
}

// ParseToolVersion extracts the first dotted version from text such as
// "cmake version 3.22.1" or "git version 2.34.1.windows.1".
func ParseToolVersion(text string) string {
	return versionPattern.FindString(text)
}

var _ ports.HostToolsPort = HostToolsAdapter{}
