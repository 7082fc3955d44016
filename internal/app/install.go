package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/core"
	"emsdk/internal/types"
)

func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	if len(req.Names) == 0 {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("missing parameter: type 'emsdk install <tool name>' to install a tool or an SDK, or 'emsdk install latest' for the newest SDK")
	}
	sess, err := s.open(ctx)
	if err != nil {
		return InstallResult{}, err
	}
	var result InstallResult
	// Installed tools are recorded before a later failure so the caller can
	// report partial progress.
	for _, name := range req.Names {
		tool, err := s.find(sess, name)
		if err != nil {
			return result, err
		}
		if err := sess.installer.Install(ctx, tool); err != nil {
			return result, err
		}
		result.Installed = append(result.Installed, tool.Name())
	}
	cleanup, err := s.CleanupDownloads(ctx, types.CacheRetentionPolicy{MaxFiles: s.cacheMaxFiles()})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("download cache cleanup failed")
	}
	result.Pruned = cleanup.Deleted
	return result, nil
}

func (s Service) Uninstall(ctx context.Context, req UninstallRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("syntax error: call 'emsdk uninstall <tool name>'")
	}
	sess, err := s.open(ctx)
	if err != nil {
		return err
	}
	tool, ok := sess.registry.FindTool(req.Name)
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("tool %q was not found", req.Name))
	}
	return sess.installer.Uninstall(ctx, tool)
}

// find resolves a command line name: aliases first, then tools, then SDKs.
func (s Service) find(sess session, name string) (types.Tool, error) {
	resolved, err := core.ResolveAlias(name, sess.releases)
	if err != nil {
		return types.Tool{}, err
	}
	if resolved != name {
		log.Debug().Str("alias", name).Str("name", resolved).Msg("resolved alias")
	}
	if tool, ok := sess.registry.Find(resolved); ok {
		return tool, nil
	}
	if strings.HasSuffix(resolved, "-64bit") && !s.Options.Platform.Is64Bit {
		return types.Tool{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("'%s' is only provided for 64-bit OSes", resolved))
	}
	return types.Tool{}, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no tool or SDK found by name '%s'", resolved))
}

func (s Service) cacheMaxFiles() int {
	if s.Options.CacheMaxFiles <= 0 {
		return DefaultCacheMaxFiles
	}
	return s.Options.CacheMaxFiles
}
