package app

import (
	"context"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"emsdk/internal/core"
	"emsdk/internal/policies"
	"emsdk/internal/shared"
	"emsdk/internal/types"
)

// List collects everything the list command shows: the recommended release,
// all known releases and the visible SDKs and tools with their state.
func (s Service) List(ctx context.Context, req ListRequest) (ListResult, error) {
	sess, err := s.open(ctx)
	if err != nil {
		return ListResult{}, err
	}
	record, err := s.Config.Load(sess.layout.ToNativePath(s.configPath(sess)))
	if err != nil {
		return ListResult{}, err
	}
	checker := newActiveChecker(sess, record)

	result := ListResult{
		LatestVersion: sess.releases.Latest,
		Precompiled:   hasPrecompiledBuilds(s.Options.Platform),
		FromGit:       s.FS.Exists(sess.layout.ToNativePath(path.Join(sess.layout.Root, ".git"))),
	}
	if hash, ok := sess.releases.LatestHash(); ok {
		result.LatestHash = hash
		result.LatestInstalled = s.sdkInstalled(ctx, sess, core.ReleaseSDKName(core.BackendUpstream, hash))
		result.FastcompInstalled = s.sdkInstalled(ctx, sess, core.ReleaseSDKName(core.BackendFastcomp, hash))
	}

	releases := slices.Clone(sess.releases.Releases)
	slices.SortStableFunc(releases, func(a, b types.Release) int {
		return slices.Compare(releaseKey(b.Version), releaseKey(a.Version))
	})
	for _, release := range releases {
		result.Releases = append(result.Releases, ReleaseEntry{
			Version:   release.Version,
			Hash:      release.Hash,
			Installed: s.sdkInstalled(ctx, sess, core.ReleaseSDKName(core.BackendUpstream, release.Hash)),
		})
	}

	policy := policies.NewListingPolicy(req.Old, req.Patterns)
	for _, sdk := range sess.registry.SDKs() {
		if !policy.Visible(sdk) {
			continue
		}
		entry, err := s.listEntry(ctx, sess, checker, sdk, req.Uses)
		if err != nil {
			return ListResult{}, err
		}
		result.SDKs = append(result.SDKs, entry)
	}
	for _, tool := range sess.registry.Tools() {
		if !policy.Visible(tool) {
			continue
		}
		entry, err := s.listEntry(ctx, sess, checker, tool, req.Uses)
		if err != nil {
			return ListResult{}, err
		}
		result.Tools = append(result.Tools, entry)
	}
	return result, nil
}

func (s Service) listEntry(ctx context.Context, sess session, checker *activeChecker, tool types.Tool, uses bool) (ListEntry, error) {
	entry := ListEntry{
		Name:       tool.Name(),
		IsSDK:      tool.IsSDK(),
		FromSource: sess.registry.NeedsCompilation(tool),
	}
	if uses {
		entry.Uses = slices.Clone(tool.Uses)
	}
	if !tool.IsSDK() {
		if err := sess.installer.CanBeInstalled(ctx, tool); err != nil {
			entry.Unavailable = shared.ErrorMessage(err)
			return entry, nil
		}
	}
	installed, err := sess.installer.IsInstalled(ctx, tool)
	if err != nil {
		return ListEntry{}, err
	}
	entry.Installed = installed
	if !installed {
		return entry, nil
	}
	active, err := checker.isActive(ctx, tool)
	if err != nil {
		return ListEntry{}, err
	}
	entry.Active = active
	entry.EnvActive = active && s.isEnvActive(sess, tool)
	if s.Receipts != nil && !tool.IsSDK() {
		receipt, ok, err := s.Receipts.ReadReceipt(sess.layout.ToNativePath(sess.layout.InstallationPath(tool)))
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("tool", tool.Name()).Msg("unreadable install receipt")
		} else if ok {
			entry.InstalledAt = receipt.InstalledAt
		}
	}
	return entry, nil
}

func (s Service) sdkInstalled(ctx context.Context, sess session, name string) bool {
	sdk, ok := sess.registry.FindSDK(name)
	if !ok {
		return false
	}
	installed, err := sess.installer.IsInstalled(ctx, sdk)
	return err == nil && installed
}

func hasPrecompiledBuilds(p types.Platform) bool {
	if !p.IsLinux() && !p.IsOSX() && !p.IsWindows() {
		return false
	}
	switch p.Arch {
	case types.ArchX86, types.ArchX8664, types.ArchAArch64:
		return true
	default:
		return false
	}
}

// releaseKey orders release versions numerically; non-numeric parts sort
// first.
func releaseKey(version string) []int {
	parts := strings.Split(version, ".")
	key := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			n = -1
		}
		key[i] = n
	}
	return key
}
