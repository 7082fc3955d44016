package ports

import (
	"context"

	"emsdk/internal/types"
)

// FilesystemPort covers the on-disk checks and mutations of the install tree.
type FilesystemPort interface {
	Exists(path string) bool
	IsFile(path string) bool
	// CountEntries returns the number of entries of a directory, 0 otherwise.
	CountEntries(path string) int
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	RemoveAll(path string) error
	Remove(path string) error
	CopyDir(src string, dst string) error
}

type InstallStatePort interface {
	IsInstalled(ctx context.Context, tool types.Tool) (bool, error)
}

// ReceiptPort stores install receipts inside installation directories.
type ReceiptPort interface {
	WriteReceipt(dir string, receipt types.InstallReceipt) error
	ReadReceipt(dir string) (types.InstallReceipt, bool, error)
}
