package app

import (
	"context"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/core"
	"emsdk/internal/types"
)

// Activate makes the requested tools, on top of the ones already active, the
// current selection: it rewrites the configuration record and computes the
// environment changes the calling shell has to apply.
func (s Service) Activate(ctx context.Context, req ActivateRequest) (ActivateResult, error) {
	if len(req.Names) == 0 {
		return ActivateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no tools/SDKs specified to activate: type 'emsdk activate <tool name>' or 'emsdk activate latest'")
	}
	if req.System && !req.Global {
		return ActivateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("--system requires --global")
	}
	sess, err := s.open(ctx)
	if err != nil {
		return ActivateResult{}, err
	}

	var requested []types.Tool
	for _, name := range req.Names {
		tool, err := s.find(sess, name)
		if err != nil {
			return ActivateResult{}, err
		}
		requested = append(requested, tool)
	}
	current, err := s.activeTools(ctx, sess)
	if err != nil {
		return ActivateResult{}, err
	}
	tools, err := sess.resolver.Resolve(ctx, append(current, requested...), true)
	if err != nil {
		return ActivateResult{}, err
	}

	configDir := s.homeDir()
	if req.Embedded {
		configDir = sess.layout.Root
	} else if rootConfig := sess.layout.ToNativePath(s.rootConfigPath(sess)); s.FS.Exists(rootConfig) {
		log.Ctx(ctx).Info().Str("file", rootConfig).Msg("removing embedded configuration file")
		if err := s.FS.Remove(rootConfig); err != nil {
			return ActivateResult{}, err
		}
	}
	configPath := path.Join(configDir, ConfigFile)

	record := core.RenderConfigRecord(sess.layout, tools, core.ConfigOptions{
		Embedded:     req.Embedded,
		ConfigDir:    configDir,
		TempDir:      s.tempDir(sess, req.Embedded),
		NodeFallback: s.nodeFallback(),
	})
	if err := s.Config.Save(sess.layout.ToNativePath(configPath), record); err != nil {
		return ActivateResult{}, err
	}
	log.Ctx(ctx).Info().Str("file", configPath).Msg("configuration file updated")
	if err := s.Config.Invalidate(sess.layout.ToNativePath(configDir)); err != nil {
		return ActivateResult{}, err
	}
	if err := s.copyPregeneratedCache(ctx, sess, tools); err != nil {
		return ActivateResult{}, err
	}

	change := s.envChanges(sess, tools, configPath)
	shell := s.shell()
	script, err := core.RenderEnvScript(shell, change, false)
	if err != nil {
		return ActivateResult{}, err
	}
	scriptPath := s.envScriptPath(sess, shell)
	if err := s.EnvScript.WriteScript(scriptPath, []byte(script)); err != nil {
		return ActivateResult{}, err
	}

	if req.Global {
		if err := s.setGlobal(ctx, change, req.System); err != nil {
			return ActivateResult{}, err
		}
	}

	result := ActivateResult{
		ConfigPath: configPath,
		ScriptPath: scriptPath,
		Script:     script,
		Change:     change,
	}
	for _, tool := range tools {
		if !tool.IsSDK() {
			result.Active = append(result.Active, tool.Name())
		}
	}
	return result, nil
}

// ConstructEnv renders the environment of the currently active tools for the
// calling shell.
func (s Service) ConstructEnv(ctx context.Context, req ConstructEnvRequest) (ConstructEnvResult, error) {
	sess, err := s.open(ctx)
	if err != nil {
		return ConstructEnvResult{}, err
	}
	current, err := s.activeTools(ctx, sess)
	if err != nil {
		return ConstructEnvResult{}, err
	}
	tools, err := sess.resolver.Resolve(ctx, current, true)
	if err != nil {
		return ConstructEnvResult{}, err
	}
	change := s.envChanges(sess, tools, s.configPath(sess))
	shell := s.shell()
	script, err := core.RenderEnvScript(shell, change, req.Permanent)
	if err != nil {
		return ConstructEnvResult{}, err
	}
	outfile := req.Outfile
	if outfile == "" {
		outfile = s.envScriptPath(sess, shell)
	}
	if err := s.EnvScript.WriteScript(outfile, []byte(script)); err != nil {
		return ConstructEnvResult{}, err
	}
	return ConstructEnvResult{Outfile: outfile, Script: script, Change: change}, nil
}

// activeTools lists the non-SDK tools the current configuration record
// selects.
func (s Service) activeTools(ctx context.Context, sess session) ([]types.Tool, error) {
	record, err := s.Config.Load(sess.layout.ToNativePath(s.configPath(sess)))
	if err != nil {
		return nil, err
	}
	checker := newActiveChecker(sess, record)
	var active []types.Tool
	for _, tool := range sess.registry.Tools() {
		ok, err := checker.isActive(ctx, tool)
		if err != nil {
			return nil, err
		}
		if ok {
			active = append(active, tool)
		}
	}
	return active, nil
}

// activeChecker memoizes activity per tool name; SDKs are active when all
// the tools they use are.
type activeChecker struct {
	sess   session
	record types.ConfigRecord
	memo   map[string]bool
}

func newActiveChecker(sess session, record types.ConfigRecord) *activeChecker {
	return &activeChecker{sess: sess, record: record, memo: map[string]bool{}}
}

func (c *activeChecker) isActive(ctx context.Context, tool types.Tool) (bool, error) {
	if known, ok := c.memo[tool.Name()]; ok {
		return known, nil
	}
	// Cycles resolve to inactive.
	c.memo[tool.Name()] = false
	installed, err := c.sess.installer.IsInstalled(ctx, tool)
	if err != nil || !installed {
		return false, err
	}
	deps := c.sess.registry.Dependencies(tool)
	for _, dep := range deps {
		ok, err := c.isActive(ctx, dep)
		if err != nil || !ok {
			return false, err
		}
	}
	active := core.IsActive(c.sess.layout, tool, c.record)
	if len(c.sess.layout.ActivatedConfig(tool)) == 0 {
		active = len(deps) > 0
	}
	c.memo[tool.Name()] = active
	return active, nil
}

// isEnvActive reports whether the calling shell already carries the tool's
// variables and PATH entries.
func (s Service) isEnvActive(sess session, tool types.Tool) bool {
	for _, env := range sess.layout.ActivatedEnv(tool) {
		value, ok := s.lookupEnv(env.Key)
		if !ok || core.ToUnixPath(value) != core.ToUnixPath(env.Value) {
			return false
		}
	}
	hostPath, _ := s.lookupEnv("PATH")
	items := strings.Split(hostPath, sess.layout.Platform.PathListSeparator())
	for _, entry := range sess.layout.ActivatedPaths(tool) {
		if !slices.ContainsFunc(items, func(item string) bool { return samePath(item, entry) }) {
			return false
		}
	}
	return true
}

func samePath(a string, b string) bool {
	return strings.TrimRight(core.ToUnixPath(a), "/") == strings.TrimRight(core.ToUnixPath(b), "/")
}

func (s Service) envChanges(sess session, tools []types.Tool, configPath string) types.EnvChangeSet {
	hostPath, _ := s.lookupEnv("PATH")
	return core.ComputeEnvChanges(sess.layout, tools, core.HostEnv{
		Path:       hostPath,
		ConfigPath: configPath,
		Lookup:     s.lookupEnv,
	})
}

func (s Service) setGlobal(ctx context.Context, change types.EnvChangeSet, system bool) error {
	vars := change.Vars
	if change.PathChanged {
		vars = append([]types.EnvVar{{Key: "PATH", Value: change.Path}}, vars...)
	}
	if err := core.CheckGlobalValues(vars); err != nil {
		return err
	}
	for _, v := range vars {
		log.Ctx(ctx).Info().Str("key", v.Key).Bool("system", system).Msg("setting global environment variable")
		if err := s.GlobalEnv.Set(v.Key, v.Value, system); err != nil {
			return err
		}
	}
	return nil
}

// copyPregeneratedCache seeds <EMSCRIPTEN_ROOT>/cache with the prebuilt
// system libraries shipped inside release installs.
func (s Service) copyPregeneratedCache(ctx context.Context, sess session, tools []types.Tool) error {
	var cacheRoot string
	for _, tool := range tools {
		for _, entry := range sess.layout.ActivatedConfig(tool) {
			if entry.Key == "EMSCRIPTEN_ROOT" && cacheRoot == "" {
				cacheRoot = path.Join(entry.Value, "cache")
			}
		}
	}
	if cacheRoot == "" {
		log.Ctx(ctx).Debug().Msg("not copying pregenerated libraries, no EMSCRIPTEN_ROOT found")
		return nil
	}
	for _, tool := range tools {
		for _, dir := range tool.PregeneratedCache {
			src := sess.layout.ToNativePath(path.Join(sess.layout.InstallationPath(tool), "lib", dir))
			if !s.FS.Exists(src) {
				continue
			}
			dst := sess.layout.ToNativePath(path.Join(cacheRoot, dir))
			log.Ctx(ctx).Info().Str("from", src).Str("to", dst).Msg("copying pregenerated cache")
			if err := s.FS.RemoveAll(dst); err != nil {
				return err
			}
			if err := s.FS.CopyDir(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// configPath is the record emscripten reads: the one in the SDK root when
// present, the user's otherwise.
func (s Service) configPath(sess session) string {
	if rootConfig := s.rootConfigPath(sess); s.FS.Exists(sess.layout.ToNativePath(rootConfig)) {
		return rootConfig
	}
	return path.Join(s.homeDir(), ConfigFile)
}

func (s Service) rootConfigPath(sess session) string {
	return path.Join(sess.layout.Root, ConfigFile)
}

func (s Service) homeDir() string {
	if s.Options.HomeDir != "" {
		return core.ToUnixPath(s.Options.HomeDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return core.ToUnixPath(home)
	}
	return core.ToUnixPath(s.Options.Root)
}

func (s Service) tempDir(sess session, embedded bool) string {
	if embedded {
		return path.Join(sess.layout.Root, "tmp")
	}
	if s.Options.TempDir != "" {
		return s.Options.TempDir
	}
	return os.TempDir()
}

// nodeFallback is the host node used for NODE_JS when no active tool
// provides one.
func (s Service) nodeFallback() string {
	for _, name := range []string{"nodejs", "node"} {
		if found, ok := s.Host.LookPath(name); ok {
			return core.ToUnixPath(found)
		}
	}
	return ""
}

func (s Service) shell() types.Shell {
	if s.Options.Shell != "" {
		return s.Options.Shell
	}
	if s.Options.Platform.IsWindows() {
		return types.ShellCmd
	}
	return types.ShellBash
}

func (s Service) envScriptPath(sess session, shell types.Shell) string {
	ext := "sh"
	switch shell {
	case types.ShellPowerShell:
		ext = "ps1"
	case types.ShellCmd:
		ext = "bat"
	case types.ShellCsh:
		ext = "csh"
	}
	return sess.layout.ToNativePath(path.Join(sess.layout.Root, "emsdk_set_env."+ext))
}
