package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
	"emsdk/internal/shared"
)

// NPMAdapter runs npm from a node installation managed by the SDK, so the
// host does not need its own node.
type NPMAdapter struct {
	GOOS   string
	Stdout io.Writer
}

func NewNPMAdapter() NPMAdapter {
	return NPMAdapter{GOOS: runtime.GOOS, Stdout: os.Stdout}
}

func (a NPMAdapter) CI(ctx context.Context, nodeBinDir string, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("npm working directory is empty")
	}
	npm := filepath.Join(nodeBinDir, a.npmName())
	if _, err := os.Stat(npm); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("npm not found at %s", npm)).
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("npm", npm).Str("dir", dir).Msg("running npm ci")
	cmd := exec.CommandContext(ctx, npm, "ci", "--production")
	cmd.Dir = dir
	cmd.Env = a.env(nodeBinDir)
	var stderr bytes.Buffer
	cmd.Stdout = writerOrDiscard(a.Stdout)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("npm ci failed in %s", dir)).
			WithCause(shared.CommandError(stderr.Bytes(), err))
	}
	return nil
}

func (a NPMAdapter) npmName() string {
	if a.GOOS == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

// env puts nodeBinDir first on PATH so npm runs with the SDK's node.
func (a NPMAdapter) env(nodeBinDir string) []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if key, _, _ := strings.Cut(kv, "="); strings.EqualFold(key, "PATH") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PATH="+shared.PrependPathList(os.Getenv("PATH"), nodeBinDir, a.GOOS))
}

var _ ports.NPMPort = NPMAdapter{}
