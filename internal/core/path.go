package core

import (
	"strings"

	"emsdk/internal/types"
)

// RequiredPath lists the PATH entries the active tools need, the SDK root
// first.
func RequiredPath(layout Layout, tools []types.Tool) []string {
	out := []string{layout.ToNativePath(layout.Root)}
	for _, tool := range tools {
		out = append(out, layout.ActivatedPaths(tool)...)
	}
	return out
}

// AdjustedPath computes the new PATH for the active tools. Entries under the
// SDK root that are no longer required disappear, foreign entries keep their
// order, and required entries go in front. added lists the required entries
// that were not on PATH before.
func AdjustedPath(layout Layout, tools []types.Tool, existing string) (string, []string) {
	sep := layout.Platform.PathListSeparator()
	required := RequiredPath(layout, tools)

	var owned, foreign []string
	if existing != "" {
		for _, entry := range strings.Split(existing, sep) {
			if underRoot(layout.Root, entry) {
				owned = append(owned, entry)
			} else {
				foreign = append(foreign, entry)
			}
		}
	}

	var added []string
	for _, entry := range required {
		if !normalizedContains(owned, entry) {
			added = append(added, entry)
		}
	}

	var fresh []string
	for _, entry := range required {
		if !normalizedContains(foreign, entry) {
			fresh = append(fresh, entry)
		}
	}
	return strings.Join(uniqueItems(append(fresh, foreign...)), sep), added
}

// underRoot compares on path boundaries, so /opt/emsdk-other is not owned by
// /opt/emsdk.
func underRoot(root string, entry string) bool {
	root = strings.TrimRight(ToUnixPath(root), "/")
	entry = ToUnixPath(entry)
	if root == "" {
		return false
	}
	return entry == root || strings.HasPrefix(entry, root+"/")
}

func normalizePathEntry(p string) string {
	p = ToUnixPath(p)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func normalizedContains(list []string, entry string) bool {
	entry = normalizePathEntry(entry)
	for _, item := range list {
		if normalizePathEntry(item) == entry {
			return true
		}
	}
	return false
}

func uniqueItems(items []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
