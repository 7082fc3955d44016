package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"emsdk/internal/ports"
	"emsdk/internal/shared"
)

// GitVCSAdapter drives the git executable for source-built tools and for the
// releases repository consulted by update-tags.
type GitVCSAdapter struct {
	// Binary overrides the git executable, "git" when empty.
	Binary  string
	Shallow bool
	// Output receives the child process stdout.
	Output io.Writer
}

func NewGitVCSAdapter(shallow bool) GitVCSAdapter {
	return GitVCSAdapter{Binary: "git", Shallow: shallow, Output: os.Stdout}
}

func (a GitVCSAdapter) Available() bool {
	_, err := exec.LookPath(a.binary())
	return err == nil
}

func (a GitVCSAdapter) CloneCheckout(ctx context.Context, url string, dir string, branch string) error {
	if strings.TrimSpace(url) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("git url is empty")
	}
	if strings.TrimSpace(branch) == "" {
		branch = "main"
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		log.Ctx(ctx).Info().Str("repo", url).Str("dir", dir).Msg("repository already cloned, skipping clone")
	} else if err := a.clone(ctx, url, dir); err != nil {
		return err
	}
	return a.checkoutAndPull(ctx, dir, branch)
}

func (a GitVCSAdapter) clone(ctx context.Context, url string, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create clone directory").
			WithCause(err)
	}
	args := []string{"clone"}
	if a.Shallow {
		args = append(args, "--depth", "1")
	}
	args = append(args, url, dir)
	if err := a.run(ctx, "", args...); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to clone %s", url)).
			WithCause(err)
	}
	return nil
}

// checkoutAndPull fast-forwards branch to origin. Local edits or extra
// remotes make it fail rather than merge.
func (a GitVCSAdapter) checkoutAndPull(ctx context.Context, dir string, branch string) error {
	log.Ctx(ctx).Info().Str("branch", branch).Str("dir", dir).Msg("fetching latest changes")
	steps := [][]string{
		{"fetch", "origin"},
		{"checkout", "--quiet", branch},
		{"merge", "--ff-only", "origin/" + branch},
	}
	for _, step := range steps {
		if err := a.run(ctx, dir, step...); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeUnavailable).
				WithMsg(fmt.Sprintf("git %s failed in %s", step[0], dir)).
				WithCause(err)
		}
	}
	if head, err := a.output(ctx, dir, "log", "-n", "1", "--format=%H %cd"); err == nil {
		log.Ctx(ctx).Info().Str("dir", dir).Str("version", head).Msg("checked out branch")
	}
	return nil
}

// RecentCommits returns the newest n commit hashes of the checked out branch.
func (a GitVCSAdapter) RecentCommits(ctx context.Context, dir string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	out, err := a.output(ctx, dir, "log", "-n", fmt.Sprint(n), "--format=%H")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read commit log in %s", dir)).
			WithCause(err)
	}
	var hashes []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes, nil
}

func (a GitVCSAdapter) run(ctx context.Context, dir string, args ...string) error {
	log.Ctx(ctx).Debug().Strs("args", args).Str("dir", dir).Msg("running git")
	cmd := exec.CommandContext(ctx, a.binary(), args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stdout = a.stdout()
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return shared.CommandError(stderr.Bytes(), err)
	}
	return nil
}

func (a GitVCSAdapter) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, a.binary(), args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", shared.CommandError(stderr.Bytes(), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (a GitVCSAdapter) binary() string {
	if strings.TrimSpace(a.Binary) == "" {
		return "git"
	}
	return a.Binary
}

func (a GitVCSAdapter) stdout() io.Writer {
	if a.Output == nil {
		return io.Discard
	}
	return a.Output
}

var _ ports.VCSPort = GitVCSAdapter{}
