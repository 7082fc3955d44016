package ports

import (
	"context"

	"emsdk/internal/types"
)

type BuildPort interface {
	Configure(ctx context.Context, req types.BuildRequest) error
	Build(ctx context.Context, req types.BuildRequest) error
}

type VCSPort interface {
	// CloneCheckout clones url into dir when needed, then checks out branch and
	// fast-forwards it.
	CloneCheckout(ctx context.Context, url string, dir string, branch string) error
	RecentCommits(ctx context.Context, dir string, n int) ([]string, error)
	Available() bool
}

type NPMPort interface {
	// CI runs "npm ci --production" in dir using the npm found in nodeBinDir.
	CI(ctx context.Context, nodeBinDir string, dir string) error
}

type HostToolsPort interface {
	LookPath(name string) (string, bool)
	// Version returns the version reported by "<name> --version".
	Version(ctx context.Context, name string) (string, error)
}
