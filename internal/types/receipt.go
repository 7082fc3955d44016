package types

import "time"

// InstallReceipt records where an installed tool came from. It is written
// next to the version stamp once an install has been verified.
type InstallReceipt struct {
	Tool        string    `yaml:"tool"`
	Version     string    `yaml:"version"`
	Source      string    `yaml:"source,omitempty"`
	Archive     string    `yaml:"archive,omitempty"`
	SHA256      string    `yaml:"sha256,omitempty"`
	InstalledAt time.Time `yaml:"-"`
}
