package policies

import (
	"emsdk/internal/types"
)

// ConflictKey groups tools that may not be active together. Today that is
// the family id; SDKs share "sdk" so only one SDK is active at a time.
func ConflictKey(tool types.Tool) string {
	return tool.ID
}

func CanSimultaneouslyActivate(a types.Tool, b types.Tool) bool {
	return ConflictKey(a) != ConflictKey(b)
}

// EliminateConflicts keeps the last entry of every conflict group and drops
// the earlier ones, preserving the relative order of what survives.
func EliminateConflicts(tools []types.Tool) []types.Tool {
	seen := map[string]struct{}{}
	kept := make([]types.Tool, 0, len(tools))
	for i := len(tools) - 1; i >= 0; i-- {
		key := ConflictKey(tools[i])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, tools[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
