package ports

import "emsdk/internal/types"

type ConfigRecordPort interface {
	Load(path string) (types.ConfigRecord, error)
	// Save replaces the record, keeping the previous one as <path>.old.
	Save(path string, content []byte) error
	// Invalidate drops state tied to the previous configuration.
	Invalidate(configDir string) error
}

type EnvScriptPort interface {
	WriteScript(path string, content []byte) error
}

type GlobalEnvPort interface {
	Get(key string, system bool) (string, error)
	Set(key string, value string, system bool) error
	Delete(key string, system bool) error
}
