package app

import (
	"fmt"
	"io"
	"path"
	"strings"

	"emsdk/internal/core"
	"emsdk/internal/types"
)

// envScripts maps a shell to the wrapper that sources the generated
// environment into it.
var envScripts = map[types.Shell]string{
	types.ShellBash:       "emsdk_env.sh",
	types.ShellCsh:        "emsdk_env.csh",
	types.ShellPowerShell: "emsdk_env.ps1",
	types.ShellCmd:        "emsdk_env.bat",
}

// ActivationHints tells the user how to bring the activated tools into the
// current shell. Nothing is returned when the shell is already set up.
func (s Service) ActivationHints(result ActivateResult) []string {
	if result.Change.Empty() {
		return nil
	}
	var hints []string
	if len(result.Change.AddedPath) > 0 {
		hints = append(hints, fmt.Sprintf(
			"hint: to use the emsdk tools from the command line, add these directories to PATH: %s",
			strings.Join(result.Change.AddedPath, ", "),
		))
	}
	return append(hints, "hint: to set up the current shell, run: "+s.envCommand(s.shell()))
}

func (s Service) envCommand(shell types.Shell) string {
	layout := core.NewLayout(s.Options.Root, s.Options.Platform)
	script := layout.ToNativePath(path.Join(layout.Root, envScripts[shell]))
	switch shell {
	case types.ShellBash, types.ShellCsh:
		return fmt.Sprintf("source %q", script)
	default:
		return script
	}
}

// EmitHints writes hint messages, one per line.
func EmitHints(w io.Writer, hints []string) {
	for _, h := range hints {
		fmt.Fprintln(w, h)
	}
}
