package types

// Categories holds the ordered (oldest first) value lists that category
// placeholders expand against.
type Categories struct {
	EmscriptenTags    []string
	BinaryenTags      []string
	PrecompiledTags32 []string
	PrecompiledTags64 []string
	ReleasesTags      []string
}

type Release struct {
	Version string
	Hash    string
}

// ReleasesInfo mirrors emscripten-releases-tags.txt. Releases keep the
// order they appear in the file.
type ReleasesInfo struct {
	Latest   string
	Releases []Release
	Tot      string
}

func (r ReleasesInfo) HashFor(version string) (string, bool) {
	for _, release := range r.Releases {
		if release.Version == version {
			return release.Hash, true
		}
	}
	return "", false
}

func (r ReleasesInfo) VersionFor(hash string) (string, bool) {
	for _, release := range r.Releases {
		if release.Hash == hash {
			return release.Version, true
		}
	}
	return "", false
}

func (r ReleasesInfo) LatestHash() (string, bool) {
	return r.HashFor(r.Latest)
}
