package core

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/policies"
	"emsdk/internal/ports"
	"emsdk/internal/types"
)

// ResolverCore turns a user selection into the list of tools to activate.
type ResolverCore struct {
	Registry *Registry
	State    ports.InstallStatePort
}

func NewResolverCore(registry *Registry, state ports.InstallStatePort) ResolverCore {
	return ResolverCore{
		Registry: registry,
		State:    state,
	}
}

// Resolve expands every requested tool with its transitive dependencies,
// drops what is not installed and keeps only the last tool of each family.
func (r ResolverCore) Resolve(ctx context.Context, requested []types.Tool, logErrors bool) ([]types.Tool, error) {
	if r.Registry == nil || r.State == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolver is missing registry or install state")
	}

	closure := r.Closure(ctx, requested)

	installed := make([]types.Tool, 0, len(closure))
	for _, tool := range closure {
		ok, err := r.State.IsInstalled(ctx, tool)
		if err != nil {
			return nil, err
		}
		if !ok {
			if logErrors {
				log.Ctx(ctx).Warn().
					Str("tool", tool.Name()).
					Msg("the tool/SDK cannot be activated since it is not installed, skipping")
			}
			continue
		}
		installed = append(installed, tool)
	}

	return policies.EliminateConflicts(installed), nil
}

// Closure places the recursive dependency list of every requested tool right
// before it, depth first in uses order. Duplicates are kept; conflict
// elimination collapses them later.
func (r ResolverCore) Closure(ctx context.Context, requested []types.Tool) []types.Tool {
	out := make([]types.Tool, 0, len(requested))
	for _, tool := range requested {
		out = append(out, r.dependencyList(ctx, tool)...)
		out = append(out, tool)
	}
	return out
}

type closureFrame struct {
	tool types.Tool
	next int
}

// dependencyList walks the uses graph with an explicit stack and emits
// dependencies in post order, without the root itself.
func (r ResolverCore) dependencyList(ctx context.Context, root types.Tool) []types.Tool {
	var out []types.Tool
	stack := []closureFrame{{tool: root}}
	onPath := map[string]bool{root.Name(): true}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.tool.Uses) {
			name := top.tool.Uses[top.next]
			top.next++
			dep, ok := r.Registry.FindTool(name)
			if !ok {
				log.Ctx(ctx).Warn().
					Str("tool", top.tool.Name()).
					Str("dependency", name).
					Msg("dependency not found in manifest, skipping")
				continue
			}
			if onPath[dep.Name()] {
				log.Ctx(ctx).Warn().
					Str("tool", top.tool.Name()).
					Str("dependency", dep.Name()).
					Msg("dependency cycle in manifest, skipping")
				continue
			}
			onPath[dep.Name()] = true
			stack = append(stack, closureFrame{tool: dep})
			continue
		}
		done := top.tool
		stack = stack[:len(stack)-1]
		delete(onPath, done.Name())
		if len(stack) > 0 {
			out = append(out, done)
		}
	}
	return out
}
