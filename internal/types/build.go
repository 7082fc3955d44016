package types

// BuildRequest is one CMake configure+build of a source tree.
type BuildRequest struct {
	SourceDir string
	BuildDir  string
	Generator string
	BuildType string
	Args      []string
	Jobs      int
	// TargetPlatform is the MSBuild platform (x64 or Win32).
	TargetPlatform string
}
