package core

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"emsdk/internal/types"
)

// Registry owns every known tool and SDK in manifest order, oldest first,
// with a name index for lookups. It is built once and then only read.
type Registry struct {
	tools   []types.Tool
	sdks    []types.Tool
	toolMap map[string]int
	sdkMap  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		toolMap: map[string]int{},
		sdkMap:  map[string]int{},
	}
}

// AddTool registers a tool. A second entry with the same name means the
// manifest is broken.
func (r *Registry) AddTool(tool types.Tool) error {
	name := tool.Name()
	if _, exists := r.toolMap[name]; exists {
		return duplicateError("tool", name)
	}
	r.toolMap[name] = len(r.tools)
	r.tools = append(r.tools, tool)
	return nil
}

func (r *Registry) AddSDK(sdk types.Tool) error {
	name := sdk.Name()
	if _, exists := r.sdkMap[name]; exists {
		return duplicateError("sdk", name)
	}
	r.sdkMap[name] = len(r.sdks)
	r.sdks = append(r.sdks, sdk)
	return nil
}

func duplicateError(kind string, name string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(fmt.Sprintf("duplicate %s %s in manifest", kind, name))
}

func (r *Registry) FindTool(name string) (types.Tool, bool) {
	idx, ok := r.toolMap[name]
	if !ok {
		return types.Tool{}, false
	}
	return r.tools[idx], true
}

func (r *Registry) FindSDK(name string) (types.Tool, bool) {
	idx, ok := r.sdkMap[name]
	if !ok {
		return types.Tool{}, false
	}
	return r.sdks[idx], true
}

// Find looks a name up among tools first, then SDKs.
func (r *Registry) Find(name string) (types.Tool, bool) {
	if tool, ok := r.FindTool(name); ok {
		return tool, true
	}
	return r.FindSDK(name)
}

func (r *Registry) Tools() []types.Tool {
	return append([]types.Tool(nil), r.tools...)
}

func (r *Registry) SDKs() []types.Tool {
	return append([]types.Tool(nil), r.sdks...)
}

// Dependencies returns the direct dependencies that exist in the registry.
func (r *Registry) Dependencies(tool types.Tool) []types.Tool {
	var deps []types.Tool
	for _, name := range tool.Uses {
		if dep, ok := r.FindTool(name); ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// NeedsCompilation reports whether the tool, or anything it uses, is built
// from source.
func (r *Registry) NeedsCompilation(tool types.Tool) bool {
	return r.needsCompilation(tool, map[string]bool{})
}

func (r *Registry) needsCompilation(tool types.Tool, seen map[string]bool) bool {
	if tool.CMakeBuildType != "" {
		return true
	}
	seen[tool.Name()] = true
	for _, dep := range r.Dependencies(tool) {
		if seen[dep.Name()] {
			continue
		}
		if r.needsCompilation(dep, seen) {
			return true
		}
	}
	return false
}
