package core

import (
	"strings"

	"emsdk/internal/types"
)

type ConfigOptions struct {
	// Embedded keeps the record inside the SDK root and makes its paths
	// relative to wherever EM_CONFIG points.
	Embedded  bool
	ConfigDir string
	TempDir   string
	// NodeFallback is used for NODE_JS when no active tool provides one.
	NodeFallback string
}

// MergeActivatedConfig folds the activated_cfg of every tool in order. A key
// keeps the position of its first appearance and the value of its last.
func MergeActivatedConfig(layout Layout, tools []types.Tool) []types.ConfigEntry {
	var merged []types.ConfigEntry
	index := map[string]int{}
	for _, tool := range tools {
		for _, entry := range layout.ActivatedConfig(tool) {
			if idx, ok := index[entry.Key]; ok {
				merged[idx].Value = entry.Value
				continue
			}
			index[entry.Key] = len(merged)
			merged = append(merged, entry)
		}
	}
	return merged
}

// RenderConfigRecord produces the full text of the configuration record for
// the active tools. The output depends only on its inputs.
func RenderConfigRecord(layout Layout, tools []types.Tool, opts ConfigOptions) []byte {
	entries := MergeActivatedConfig(layout, tools)
	hasNode := false
	for _, entry := range entries {
		if entry.Key == "NODE_JS" {
			hasNode = true
			break
		}
	}
	if !hasNode {
		node := opts.NodeFallback
		if node == "" {
			node = "node"
		}
		entries = append(entries, types.ConfigEntry{Key: "NODE_JS", Value: node})
	}

	var b strings.Builder
	if opts.Embedded {
		b.WriteString("import os\n")
		b.WriteString("emsdk_path = os.path.dirname(os.environ.get('EM_CONFIG')).replace('\\\\', '/')\n")
	}
	for _, entry := range entries {
		b.WriteString(entry.Key + " = '" + entry.Value + "'\n")
	}
	b.WriteString("TEMP_DIR = '" + ToUnixPath(opts.TempDir) + "'\n")
	b.WriteString("COMPILER_ENGINE = NODE_JS\n")
	b.WriteString("JS_ENGINES = [NODE_JS]\n")

	cfg := b.String()
	if opts.Embedded && opts.ConfigDir != "" {
		cfg = strings.ReplaceAll(cfg, "'"+ToUnixPath(opts.ConfigDir), "emsdk_path + '")
	}
	return []byte(cfg)
}

// ParseConfigRecord reads KEY = value lines back. Lines without a value are
// ignored; values keep their quotes.
func ParseConfigRecord(data []byte) types.ConfigRecord {
	var record types.ConfigRecord
	for _, line := range strings.Split(string(data), "\n") {
		key, value := ParseKeyValue(line)
		if key == "" || value == "" {
			continue
		}
		record.Entries = append(record.Entries, types.ConfigEntry{Key: key, Value: value})
	}
	return record
}

// IsActive reports whether every activated_cfg entry of the tool is present
// with the same value in the record. Tools without config count as active
// once installed.
func IsActive(layout Layout, tool types.Tool, record types.ConfigRecord) bool {
	for _, entry := range layout.ActivatedConfig(tool) {
		value, ok := record.Get(entry.Key)
		if !ok {
			return false
		}
		if relative, ok := strings.CutPrefix(value, "emsdk_path + "); ok {
			value = layout.Root + strings.Trim(relative, "'")
		}
		if strings.Trim(value, "'") != entry.Value {
			return false
		}
	}
	return true
}
