package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/types"
)

var knownInstallScripts = map[string]struct{}{
	types.InstallScriptBuildFastcomp:         {},
	types.InstallScriptBuildLLVMMonorepo:     {},
	types.InstallScriptEmscriptenPostInstall: {},
	types.InstallScriptEmscriptenNPMInstall:  {},
	types.InstallScriptBuildBinaryen:         {},
}

var knownUninstallScripts = map[string]struct{}{
	types.UninstallScriptOptimizer: {},
	types.UninstallScriptBinaryen:  {},
}

var knownIsInstalledScripts = map[string]struct{}{
	types.IsInstalledScriptOptimizer: {},
	types.IsInstalledScriptBinaryen:  {},
}

// Validate loads and expands the manifest, then checks what expansion does
// not: hook names and uses references. Unknown hooks fail; dangling
// references are reported as warnings.
func (s Service) Validate(ctx context.Context) (ValidateResult, error) {
	sess, err := s.open(ctx)
	if err != nil {
		return ValidateResult{}, err
	}
	tools := sess.registry.Tools()
	sdks := sess.registry.SDKs()
	result := ValidateResult{
		Tools:    len(tools),
		SDKs:     len(sdks),
		Families: summarizeFamilies(tools),
	}

	var problems []string
	for _, tool := range append(tools, sdks...) {
		problems = append(problems, hookProblems(tool)...)
		for _, name := range tool.Uses {
			if _, ok := sess.registry.FindTool(name); !ok {
				warning := fmt.Sprintf("%s uses unknown tool %s", tool.Name(), name)
				log.Ctx(ctx).Warn().Str("tool", tool.Name()).Str("dependency", name).Msg("dangling uses reference")
				result.Warnings = append(result.Warnings, warning)
			}
		}
	}
	if len(problems) > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest validation failed: " + strings.Join(problems, "; "))
	}
	return result, nil
}

func hookProblems(tool types.Tool) []string {
	checks := []struct {
		field string
		value string
		known map[string]struct{}
	}{
		{"custom_install_script", tool.CustomInstallScript, knownInstallScripts},
		{"custom_uninstall_script", tool.CustomUninstallScript, knownUninstallScripts},
		{"custom_is_installed_script", tool.CustomIsInstalledScript, knownIsInstalledScripts},
	}
	var problems []string
	for _, check := range checks {
		if check.value == "" {
			continue
		}
		if _, ok := check.known[check.value]; !ok {
			problems = append(problems, fmt.Sprintf("unknown %s %q in %s", check.field, check.value, tool.Name()))
		}
	}
	return problems
}

// summarizeFamilies counts registry entries per tool id.
func summarizeFamilies(tools []types.Tool) []FamilySummary {
	counts := map[string]int{}
	for _, tool := range tools {
		counts[tool.ID]++
	}
	var out []FamilySummary
	for _, id := range sortedKeys(counts) {
		out = append(out, FamilySummary{ID: id, Count: counts[id]})
	}
	return out
}

func sortedKeys[V any](input map[string]V) []string {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
