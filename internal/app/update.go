package app

import (
	"context"
	"fmt"
	"path"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/core"
)

// Update replaces the SDK root with the latest published snapshot, then
// refreshes the release tags. Checkouts are left to git.
func (s Service) Update(ctx context.Context) (UpdateResult, error) {
	layout := core.NewLayout(s.Options.Root, s.Options.Platform)
	if s.FS.Exists(layout.ToNativePath(path.Join(layout.Root, ".git"))) {
		return UpdateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("this SDK is a git checkout; use 'git pull' followed by 'emsdk update-tags' instead of 'emsdk update'")
	}
	updateURL := s.Options.UpdateURL
	if updateURL == "" {
		updateURL = DefaultUpdateURL
	}
	zips := s.Options.Install.ZipsDir
	if zips == "" {
		zips = path.Join(layout.Root, "zips")
	}
	archive := layout.ToNativePath(path.Join(zips, path.Base(updateURL)))

	log.Ctx(ctx).Info().Str("url", updateURL).Msg("downloading SDK snapshot")
	if err := s.Fetcher.Fetch(ctx, updateURL, archive); err != nil {
		return UpdateResult{}, err
	}
	if err := s.Unpacker.Unpack(ctx, archive, layout.ToNativePath(layout.Root), 1); err != nil {
		return UpdateResult{}, err
	}
	if err := s.FS.Remove(archive); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("file", archive).Msg("snapshot archive not removed")
	}
	return s.UpdateTags(ctx)
}

// UpdateTags records the newest releases commit that has a build published
// for this host as the tip-of-tree SDK.
func (s Service) UpdateTags(ctx context.Context) (UpdateResult, error) {
	if !s.VCS.Available() {
		log.Ctx(ctx).Warn().Msg("git was not found; skipped fetching the emscripten release tags")
		return UpdateResult{GitMissing: true}, nil
	}
	layout := core.NewLayout(s.Options.Root, s.Options.Platform)
	repo := s.Options.ReleasesRepo
	if repo == "" {
		repo = DefaultReleasesRepo
	}
	dir := layout.ToNativePath(path.Join(layout.Root, "releases"))

	log.Ctx(ctx).Info().Str("repo", repo).Msg("fetching emscripten-releases repository")
	if err := s.VCS.CloneCheckout(ctx, repo, dir, "master"); err != nil {
		return UpdateResult{}, err
	}
	count := s.Options.RecentCommits
	if count <= 0 {
		count = DefaultRecentCommits
	}
	commits, err := s.VCS.RecentCommits(ctx, dir, count)
	if err != nil {
		return UpdateResult{}, err
	}
	for _, hash := range commits {
		url := s.releaseBuildURL(hash)
		exists, err := s.Probe.Exists(ctx, url)
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("url", url).Msg("release build probe failed")
			continue
		}
		if !exists {
			continue
		}
		if err := s.Tags.WriteTot(hash); err != nil {
			return UpdateResult{}, err
		}
		log.Ctx(ctx).Info().Str("tot", hash).Msg("found tip-of-tree build")
		return UpdateResult{Tot: hash}, nil
	}
	log.Ctx(ctx).Warn().Int("commits", len(commits)).Msg("no recent releases commit has a published build")
	return UpdateResult{}, nil
}

func (s Service) releaseBuildURL(hash string) string {
	format := s.Options.ReleasesURL
	if format == "" {
		format = DefaultReleasesURL
	}
	ext := "tbz2"
	if s.Options.Platform.IsWindows() {
		ext = "zip"
	}
	return fmt.Sprintf(format, s.Options.Platform.ReleasesOSName(), hash, ext)
}
