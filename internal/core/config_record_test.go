package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

func TestRenderConfigRecordMergesLastWins(t *testing.T) {
	layout := NewLayout("/opt/emsdk", linux64)
	tools := []types.Tool{
		{ID: "a", Version: "1", ActivatedCfg: "LLVM_ROOT='/a/llvm';BINARYEN_ROOT='/a/binaryen'"},
		{ID: "b", Version: "1", ActivatedCfg: "LLVM_ROOT='/b/llvm'"},
	}
	got := string(RenderConfigRecord(layout, tools, ConfigOptions{TempDir: "/tmp", NodeFallback: "/usr/bin/nodejs"}))

	want := "LLVM_ROOT = '/b/llvm'\n" +
		"BINARYEN_ROOT = '/a/binaryen'\n" +
		"NODE_JS = '/usr/bin/nodejs'\n" +
		"TEMP_DIR = '/tmp'\n" +
		"COMPILER_ENGINE = NODE_JS\n" +
		"JS_ENGINES = [NODE_JS]\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
}

func TestRenderConfigRecordNodeFallbackIsSingleQuoted(t *testing.T) {
	got := string(RenderConfigRecord(NewLayout("/opt/emsdk", linux64), nil, ConfigOptions{TempDir: "/tmp"}))
	assert.Contains(t, got, "NODE_JS = 'node'\n")
}

func TestRenderConfigRecordEmbeddedIsRelocatable(t *testing.T) {
	layout := NewLayout("/opt/emsdk", linux64)
	node := types.Tool{ID: "node", Version: "14.15.5", Bitness: 64, ActivatedCfg: "NODE_JS='%installation_dir%/bin/node%.exe%'"}
	got := string(RenderConfigRecord(layout, []types.Tool{node}, ConfigOptions{
		Embedded:  true,
		ConfigDir: "/opt/emsdk",
		TempDir:   "/opt/emsdk/tmp",
	}))

	assert.Contains(t, got, "import os\n")
	assert.Contains(t, got, "NODE_JS = emsdk_path + '/node/14.15.5_64bit/bin/node'\n")
	assert.Contains(t, got, "TEMP_DIR = emsdk_path + '/tmp'\n")
	assert.NotContains(t, got, "'/opt/emsdk")
}

func TestRenderConfigRecordIsDeterministic(t *testing.T) {
	layout := NewLayout("/opt/emsdk", linux64)
	tools := []types.Tool{{ID: "a", Version: "1", ActivatedCfg: "X='1';Y='2'"}}
	opts := ConfigOptions{TempDir: "/tmp"}
	first := RenderConfigRecord(layout, tools, opts)
	second := RenderConfigRecord(layout, tools, opts)
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Fatalf("record differs between runs (-want +got):\n%s", diff)
	}
}

func TestParseConfigRecordAndIsActive(t *testing.T) {
	layout := NewLayout("/opt/emsdk", linux64)
	node := types.Tool{ID: "node", Version: "14.15.5", Bitness: 64, ActivatedCfg: "NODE_JS='%installation_dir%/bin/node%.exe%'"}

	plain := ParseConfigRecord(RenderConfigRecord(layout, []types.Tool{node}, ConfigOptions{TempDir: "/tmp"}))
	value, ok := plain.Get("NODE_JS")
	require.True(t, ok)
	assert.Equal(t, "'/opt/emsdk/node/14.15.5_64bit/bin/node'", value)
	assert.True(t, IsActive(layout, node, plain))

	embedded := ParseConfigRecord(RenderConfigRecord(layout, []types.Tool{node}, ConfigOptions{
		Embedded:  true,
		ConfigDir: "/opt/emsdk",
		TempDir:   "/opt/emsdk/tmp",
	}))
	assert.True(t, IsActive(layout, node, embedded))

	other := types.Tool{ID: "node", Version: "12.9.1", Bitness: 64, ActivatedCfg: node.ActivatedCfg}
	assert.False(t, IsActive(layout, other, plain))
}
