package adapters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

func TestReceiptRoundTripWithChecksum(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "node.tar.xz")
	require.NoError(t, os.WriteFile(archive, []byte("payload"), 0o644))
	installed := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	adapter := ReceiptFileAdapter{Now: func() time.Time { return installed }}

	installDir := filepath.Join(dir, "node", "14.15.5_64bit")
	require.NoError(t, adapter.WriteReceipt(installDir, types.InstallReceipt{
		Tool:    "node-14.15.5-64bit",
		Version: "14.15.5",
		Source:  "https://example.invalid/node.tar.xz",
		Archive: archive,
	}))

	got, ok, err := adapter.ReadReceipt(installDir)
	require.NoError(t, err)
	require.True(t, ok)
	want := types.InstallReceipt{
		Tool:        "node-14.15.5-64bit",
		Version:     "14.15.5",
		Source:      "https://example.invalid/node.tar.xz",
		Archive:     archive,
		SHA256:      "239f59ed55e737c77147cf55ad0c1b030b6d7ee748a7426952f9b852d5a935e5",
		InstalledAt: installed,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected receipt (-want +got):\n%s", diff)
	}
}

func TestReceiptMissingArchiveIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	adapter := NewReceiptFileAdapter()
	require.NoError(t, adapter.WriteReceipt(dir, types.InstallReceipt{
		Tool:    "git-2.30.0",
		Archive: filepath.Join(dir, "gone.zip"),
	}))
	got, ok, err := adapter.ReadReceipt(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.SHA256)
	assert.False(t, got.InstalledAt.IsZero())
}

func TestReadReceiptAbsent(t *testing.T) {
	_, ok, err := NewReceiptFileAdapter().ReadReceipt(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseTimeFlexible(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"RFC3339", "2025-06-15T10:30:00Z", time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"RFC3339 with offset", "2025-06-15T12:30:00+02:00", time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"datetime without timezone", "2025-06-15 10:30:00", time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"empty string", "  ", time.Time{}},
		{"unparseable returns zero", "yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseTimeFlexible(tt.input))
		})
	}
}
