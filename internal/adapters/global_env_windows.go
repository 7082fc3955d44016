//go:build windows

package adapters

import (
	"errors"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows/registry"

	"emsdk/internal/ports"
)

const userEnvironmentKey = `Environment`
const systemEnvironmentKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// GlobalEnvAdapter edits the persistent user or system environment in the
// Windows registry.
type GlobalEnvAdapter struct{}

func NewGlobalEnvAdapter() GlobalEnvAdapter {
	return GlobalEnvAdapter{}
}

// Get returns "" for a value that is not set.
func (a GlobalEnvAdapter) Get(key string, system bool) (string, error) {
	k, err := openEnvironmentKey(system, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	value, _, err := k.GetStringValue(key)
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read environment variable " + key).
			WithCause(err)
	}
	return value, nil
}

func (a GlobalEnvAdapter) Set(key string, value string, system bool) error {
	k, err := openEnvironmentKey(system, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	log.Debug().Str("key", key).Bool("system", system).Msg("setting persistent environment variable")
	if err := k.SetExpandStringValue(key, value); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to set environment variable " + key).
			WithCause(err)
	}
	return nil
}

func (a GlobalEnvAdapter) Delete(key string, system bool) error {
	k, err := openEnvironmentKey(system, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	if err := k.DeleteValue(key); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to delete environment variable " + key).
			WithCause(err)
	}
	return nil
}

func openEnvironmentKey(system bool, access uint32) (registry.Key, error) {
	root, path := registry.CURRENT_USER, userEnvironmentKey
	if system {
		root, path = registry.LOCAL_MACHINE, systemEnvironmentKey
	}
	k, err := registry.OpenKey(root, path, access)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to open the environment registry key").
			WithCause(err)
	}
	return k, nil
}

var _ ports.GlobalEnvPort = GlobalEnvAdapter{}
