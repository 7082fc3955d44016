package adapters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEnvScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emsdk_set_env.sh")
	content := []byte("export EMSDK=\"/opt/emsdk\"\n")
	require.NoError(t, NewEnvScriptAdapter().WriteScript(path, content))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(content), string(got))

	err = NewEnvScriptAdapter().WriteScript("", content)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestNPMRequiresManagedNode(t *testing.T) {
	err := NewNPMAdapter().CI(t.Context(), filepath.Join(t.TempDir(), "bin"), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
}

func TestNPMEnvPrefixesNodeBin(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	env := NPMAdapter{GOOS: "linux"}.env("/opt/emsdk/node/bin")
	var paths []string
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			paths = append(paths, kv)
		}
	}
	assert.Equal(t, []string{"PATH=/opt/emsdk/node/bin:/usr/bin"}, paths)
}
