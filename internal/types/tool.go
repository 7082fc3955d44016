package types

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Tool is one manifest entry. SDKs are tools whose ID is "sdk"; they carry no
// payload of their own and only bundle the tools listed in Uses.
type Tool struct {
	ID            string `yaml:"id"`
	Version       string `yaml:"version"`
	Bitness       int    `yaml:"bitness,omitempty"`
	AppendBitness *bool  `yaml:"append_bitness,omitempty"`
	Arch          string `yaml:"arch,omitempty"`
	OS            string `yaml:"os,omitempty"`

	URL        string `yaml:"url,omitempty"`
	WindowsURL string `yaml:"windows_url,omitempty"`
	OSXURL     string `yaml:"osx_url,omitempty"`
	LinuxURL   string `yaml:"linux_url,omitempty"`
	UnixURL    string `yaml:"unix_url,omitempty"`

	InstallPath        string `yaml:"install_path,omitempty"`
	WindowsInstallPath string `yaml:"windows_install_path,omitempty"`

	ActivatedPath string `yaml:"activated_path,omitempty"`
	ActivatedCfg  string `yaml:"activated_cfg,omitempty"`
	ActivatedEnv  string `yaml:"activated_env,omitempty"`

	Uses          []string        `yaml:"uses,omitempty"`
	VersionFilter []VersionFilter `yaml:"version_filter,omitempty"`
	IsOld         bool            `yaml:"is_old,omitempty"`

	GitBranch               string `yaml:"git_branch,omitempty"`
	CMakeBuildType          string `yaml:"cmake_build_type,omitempty"`
	CustomInstallScript     string `yaml:"custom_install_script,omitempty"`
	CustomUninstallScript   string `yaml:"custom_uninstall_script,omitempty"`
	CustomIsInstalledScript string `yaml:"custom_is_installed_script,omitempty"`
	ZipfilePrefix           string `yaml:"zipfile_prefix,omitempty"`
	ReleasesHash            string `yaml:"emscripten_releases_hash,omitempty"`

	PregeneratedCache []string          `yaml:"pregenerated_cache,omitempty"`
	HostRequirements  map[string]string `yaml:"host_requirements,omitempty"`

	// Extra keeps manifest keys this struct does not model.
	Extra map[string]string `yaml:",inline"`
}

// Name is the registry key: id-version, plus -NNbit when bitness is set.
func (t Tool) Name() string {
	name := t.ID + "-" + t.Version
	if t.Bitness != 0 {
		name += fmt.Sprintf("-%dbit", t.Bitness)
	}
	return name
}

func (t Tool) String() string {
	return t.Name()
}

func (t Tool) IsSDK() bool {
	return t.ID == SDKID
}

// HasBitnessSuffix reports whether the install directory gets a _NNbit suffix.
func (t Tool) HasBitnessSuffix() bool {
	return t.Bitness != 0 && (t.AppendBitness == nil || *t.AppendBitness)
}

// Clone returns a deep copy so expansion can rewrite fields freely.
func (t Tool) Clone() Tool {
	out := t
	out.Uses = slices.Clone(t.Uses)
	out.VersionFilter = slices.Clone(t.VersionFilter)
	out.PregeneratedCache = slices.Clone(t.PregeneratedCache)
	out.HostRequirements = maps.Clone(t.HostRequirements)
	out.Extra = maps.Clone(t.Extra)
	if t.AppendBitness != nil {
		value := *t.AppendBitness
		out.AppendBitness = &value
	}
	return out
}

type Manifest struct {
	Tools []Tool `yaml:"tools"`
	SDKs  []Tool `yaml:"sdks"`
}

// UnmarshalYAML reads the [placeholder, op, reference] list form.
func (f *VersionFilter) UnmarshalYAML(node *yaml.Node) error {
	var parts []string
	if err := node.Decode(&parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("version_filter entry must have 3 elements, got %d", len(parts))
	}
	f.Placeholder = parts[0]
	f.Op = FilterOp(parts[1])
	f.Reference = parts[2]
	return nil
}

func (f VersionFilter) MarshalYAML() (any, error) {
	return []string{f.Placeholder, string(f.Op), f.Reference}, nil
}
