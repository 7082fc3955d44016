package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"emsdk/internal/types"
)

// MaxGlobalValueLength is the longest value SETX stores without truncating.
const MaxGlobalValueLength = 1024

// HostEnv is the environment activation is computed against.
type HostEnv struct {
	Path       string
	ConfigPath string
	Lookup     func(key string) (string, bool)
}

func (h HostEnv) get(key string) (string, bool) {
	if h.Lookup == nil {
		return "", false
	}
	return h.Lookup(key)
}

// ComputeEnvChanges returns the PATH and variable updates that make the
// tools usable. Variables already holding the wanted value are left out, so
// applying the result and computing again yields an empty change set.
func ComputeEnvChanges(layout Layout, tools []types.Tool, host HostEnv) types.EnvChangeSet {
	newPath, added := AdjustedPath(layout, tools, host.Path)
	change := types.EnvChangeSet{
		Path:        newPath,
		PathChanged: newPath != host.Path,
		AddedPath:   added,
	}

	seen := map[string]int{}
	add := func(key string, value string) {
		if current, ok := host.get(key); ok && ToUnixPath(current) == ToUnixPath(value) {
			return
		}
		if idx, ok := seen[key]; ok {
			change.Vars[idx].Value = value
			return
		}
		seen[key] = len(change.Vars)
		change.Vars = append(change.Vars, types.EnvVar{Key: key, Value: value})
	}

	add("EMSDK", ToUnixPath(layout.Root))
	if host.ConfigPath != "" {
		add("EM_CONFIG", layout.ToNativePath(host.ConfigPath))
	}
	for _, tool := range tools {
		for _, entry := range layout.ActivatedConfig(tool) {
			if entry.Key == "EMSCRIPTEN_ROOT" {
				add("EM_CACHE", layout.ToNativePath(path.Join(entry.Value, "cache")))
			}
		}
		for _, env := range layout.ActivatedEnv(tool) {
			add(env.Key, env.Value)
		}
	}
	return change
}

// RenderEnvScript writes the change set as commands for the given shell.
// permanent only matters for cmd, where it switches SET to SETX.
func RenderEnvScript(shell types.Shell, change types.EnvChangeSet, permanent bool) (string, error) {
	var b strings.Builder
	if change.PathChanged {
		line, err := envLine(shell, "PATH", change.Path, false)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}
	for _, v := range change.Vars {
		line, err := envLine(shell, v.Key, v.Value, permanent)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}
	return b.String(), nil
}

func envLine(shell types.Shell, key string, value string, permanent bool) (string, error) {
	switch shell {
	case types.ShellBash:
		return "export " + key + "=\"" + value + "\"\n", nil
	case types.ShellCsh:
		return "setenv " + key + " \"" + value + "\"\n", nil
	case types.ShellPowerShell:
		return "$env:" + key + "=\"" + value + "\"\n", nil
	case types.ShellCmd:
		if permanent {
			return "SETX " + key + " \"" + value + "\"\n", nil
		}
		return "SET " + key + "=" + value + "\n", nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported shell %q", shell))
	}
}

// CheckGlobalValues rejects the whole set before anything is written when a
// value would be truncated by the system.
func CheckGlobalValues(vars []types.EnvVar) error {
	for _, v := range vars {
		if len(v.Value) > MaxGlobalValueLength {
			return errbuilder.New().
				WithCode(errbuilder.CodeOutOfRange).
				WithMsg(fmt.Sprintf("the new environment variable %s is more than %d characters long; setting it globally would truncate it, set it manually instead", v.Key, MaxGlobalValueLength))
		}
	}
	return nil
}
