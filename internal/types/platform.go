package types

import "strings"

// Platform describes the host once; everything OS or arch dependent takes it
// as an argument.
type Platform struct {
	OS      string
	Arch    string
	Is64Bit bool
}

func (p Platform) IsWindows() bool { return p.OS == OSWindows }
func (p Platform) IsLinux() bool   { return p.OS == OSLinux }
func (p Platform) IsOSX() bool     { return p.OS == OSDarwin }
func (p Platform) IsUnix() bool    { return p.IsLinux() || p.IsOSX() }

// PathListSeparator is the PATH separator of the platform, not of the host
// running the tests.
func (p Platform) PathListSeparator() string {
	if p.IsWindows() {
		return ";"
	}
	return ":"
}

func (p Platform) ExeSuffix() string {
	if p.IsWindows() {
		return ".exe"
	}
	return ""
}

// ReleasesOSName is the directory name used by the release build bucket.
func (p Platform) ReleasesOSName() string {
	switch {
	case p.IsWindows():
		return "win"
	case p.IsOSX():
		return "mac"
	default:
		return "linux"
	}
}

// NormalizeArch maps GOARCH style names to the manifest arch vocabulary.
func NormalizeArch(machine string) string {
	machine = strings.ToLower(machine)
	switch {
	case strings.HasPrefix(machine, "x64"), strings.HasPrefix(machine, "amd64"), strings.HasPrefix(machine, "x86_64"):
		return ArchX8664
	case strings.HasSuffix(machine, "86"):
		return ArchX86
	case strings.HasPrefix(machine, "aarch64"), strings.HasPrefix(machine, "arm64"):
		return ArchAArch64
	case strings.HasPrefix(machine, "arm"):
		return ArchARM
	default:
		return machine
	}
}
