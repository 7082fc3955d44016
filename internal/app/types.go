package app

import (
	"time"

	"emsdk/internal/types"
)

type InstallRequest struct {
	Names []string
}

type InstallResult struct {
	Installed []string
	// Pruned lists cached downloads removed after the install.
	Pruned []string
}

type UninstallRequest struct {
	Name string
}

type ActivateRequest struct {
	Names    []string
	Embedded bool
	// Global also writes the variables to the persistent user environment.
	Global bool
	// System targets the machine-wide environment instead of the user's.
	System bool
}

type ActivateResult struct {
	Active     []string
	ConfigPath string
	ScriptPath string
	Script     string
	Change     types.EnvChangeSet
}

type ConstructEnvRequest struct {
	// Outfile defaults to the shell-specific script in the SDK root.
	Outfile   string
	Permanent bool
}

type ConstructEnvResult struct {
	Outfile string
	Script  string
	Change  types.EnvChangeSet
}

type ListRequest struct {
	Old      bool
	Uses     bool
	Patterns []string
}

type ReleaseEntry struct {
	Version   string
	Hash      string
	Installed bool
}

type ListEntry struct {
	Name      string
	IsSDK     bool
	Installed bool
	// Active means selected in the configuration record; EnvActive also
	// requires the calling shell to carry the tool's PATH and variables.
	Active      bool
	EnvActive   bool
	Unavailable string
	FromSource  bool
	Uses        []string
	InstalledAt time.Time
}

type ListResult struct {
	LatestVersion string
	LatestHash    string
	// Precompiled reports whether release builds exist for this host.
	Precompiled       bool
	LatestInstalled   bool
	FastcompInstalled bool
	Releases          []ReleaseEntry
	SDKs              []ListEntry
	Tools             []ListEntry
	FromGit           bool
}

type UpdateResult struct {
	// Tot is the newest releases commit with published builds, empty when
	// none was found.
	Tot string
	// GitMissing is set when the tags refresh was skipped for lack of git.
	GitMissing bool
}

type CleanupResult struct {
	Kept    int
	Deleted []string
	DryRun  bool
}

type FamilySummary struct {
	ID    string
	Count int
}

type ValidateResult struct {
	Tools    int
	SDKs     int
	Families []FamilySummary
	Warnings []string
}

type InspectResult struct {
	Name        string
	IsSDK       bool
	Uses        []string
	FromSource  bool
	InstallPath string
	DownloadURL string
	Paths       []string
	Config      []types.ConfigEntry
	Env         []types.EnvVar
	Unavailable string
	Installed   bool
	Active      bool
	Receipt     *types.InstallReceipt
}
