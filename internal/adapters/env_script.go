package adapters

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
)

// EnvScriptAdapter writes the script the calling shell wrapper sources after
// activation or construct_env.
type EnvScriptAdapter struct{}

func NewEnvScriptAdapter() EnvScriptAdapter {
	return EnvScriptAdapter{}
}

func (a EnvScriptAdapter) WriteScript(path string, content []byte) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("environment script path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create environment script directory").
			WithCause(err)
	}
	log.Debug().Str("file", path).Msg("writing environment script")
	if err := writeFileAtomic(path, content); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to write environment script " + path).
			WithCause(err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(path, 0o755); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("failed to make environment script executable")
		}
	}
	return nil
}

var _ ports.EnvScriptPort = EnvScriptAdapter{}
