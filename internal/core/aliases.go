package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"emsdk/internal/types"
)

const (
	BackendUpstream = "upstream"
	BackendFastcomp = "fastcomp"
)

// upstreamSince is the first release whose default backend is upstream.
var upstreamSince = []int{1, 39, 0}

// ReleaseSDKName is the registry name of a precompiled release SDK.
func ReleaseSDKName(backend string, hash string) string {
	return fmt.Sprintf("sdk-releases-%s-%s-64bit", backend, hash)
}

// ResolveAlias maps the meta names users type (latest, tot, 1.39.8-fastcomp,
// sdk-1.38.40-64bit, ...) to a concrete SDK name. Names that are not aliases
// come back unchanged.
func ResolveAlias(name string, releases types.ReleasesInfo) (string, error) {
	switch name {
	case "latest", "sdk-latest", "latest-64bit", "sdk-latest-64bit",
		"latest-upstream", "latest-clang-upstream", "latest-releases-upstream":
		return latestReleaseSDK(BackendUpstream, releases)
	case "latest-fastcomp", "latest-releases-fastcomp":
		return latestReleaseSDK(BackendFastcomp, releases)
	case "tot", "sdk-tot", "tot-upstream":
		return totSDK(BackendUpstream, releases)
	case "tot-fastcomp", "sdk-nightly-latest":
		return totSDK(BackendFastcomp, releases)
	}

	arg := name
	backend := ""
	switch {
	case strings.Contains(arg, "-upstream"):
		arg = strings.ReplaceAll(arg, "-upstream", "")
		backend = BackendUpstream
	case strings.Contains(arg, "-fastcomp"):
		arg = strings.ReplaceAll(arg, "-fastcomp", "")
		backend = BackendFastcomp
	}
	arg = strings.NewReplacer("sdk-", "", "-64bit", "", "tag-", "").Replace(arg)
	hash, ok := releases.HashFor(arg)
	if !ok {
		return name, nil
	}
	if backend == "" {
		backend = BackendFastcomp
		if key, err := VersionKey(arg); err == nil && slices.Compare(key, upstreamSince) >= 0 {
			backend = BackendUpstream
		}
	}
	return ReleaseSDKName(backend, hash), nil
}

func latestReleaseSDK(backend string, releases types.ReleasesInfo) (string, error) {
	hash, ok := releases.LatestHash()
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("latest release %q has no known build hash, run emsdk update-tags", releases.Latest))
	}
	return ReleaseSDKName(backend, hash), nil
}

func totSDK(backend string, releases types.ReleasesInfo) (string, error) {
	if strings.TrimSpace(releases.Tot) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("tip-of-tree build was not found, run emsdk update-tags")
	}
	return ReleaseSDKName(backend, strings.TrimSpace(releases.Tot)), nil
}
