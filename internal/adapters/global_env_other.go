//go:build !windows

package adapters

import (
	"github.com/ZanzyTHEbar/errbuilder-go"

	"emsdk/internal/ports"
)

// GlobalEnvAdapter has no persistent store outside Windows; --permanent and
// --system are rejected there.
type GlobalEnvAdapter struct{}

func NewGlobalEnvAdapter() GlobalEnvAdapter {
	return GlobalEnvAdapter{}
}

func (a GlobalEnvAdapter) Get(key string, system bool) (string, error) {
	return "", errGlobalEnvUnsupported()
}

func (a GlobalEnvAdapter) Set(key string, value string, system bool) error {
	return errGlobalEnvUnsupported()
}

func (a GlobalEnvAdapter) Delete(key string, system bool) error {
	return errGlobalEnvUnsupported()
}

func errGlobalEnvUnsupported() error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("the --permanent and --system options are only supported on Windows")
}

var _ ports.GlobalEnvPort = GlobalEnvAdapter{}
