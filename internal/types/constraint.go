package types

// VersionFilter is a manifest `version_filter` triple such as
// ["%releases-tag%", "<=", "1.38.33"].
type VersionFilter struct {
	Placeholder string
	Op          FilterOp
	Reference   string
}
