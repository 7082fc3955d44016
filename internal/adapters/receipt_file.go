package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"emsdk/internal/ports"
	"emsdk/internal/types"
)

const ReceiptFile = ".emsdk_receipt.yaml"

// ReceiptFileAdapter keeps a YAML install receipt in each installation
// directory.
type ReceiptFileAdapter struct {
	Now func() time.Time
}

func NewReceiptFileAdapter() ReceiptFileAdapter {
	return ReceiptFileAdapter{Now: time.Now}
}

type receiptDocument struct {
	types.InstallReceipt `yaml:",inline"`
	InstalledAt          string `yaml:"installed_at"`
}

// WriteReceipt fills in the archive checksum and the install time when the
// receipt does not carry them yet.
func (a ReceiptFileAdapter) WriteReceipt(dir string, receipt types.InstallReceipt) error {
	if strings.TrimSpace(dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("receipt directory is empty")
	}
	if receipt.SHA256 == "" && receipt.Archive != "" {
		sum, err := fileSHA256(receipt.Archive)
		if err != nil {
			log.Debug().Err(err).Str("archive", receipt.Archive).Msg("cannot checksum archive for receipt")
		}
		receipt.SHA256 = sum
	}
	installedAt := receipt.InstalledAt
	if installedAt.IsZero() {
		installedAt = a.now()
	}
	doc := receiptDocument{InstallReceipt: receipt, InstalledAt: installedAt.UTC().Format(time.RFC3339)}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal install receipt").
			WithCause(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create receipt directory").
			WithCause(err)
	}
	if err := writeFileAtomic(filepath.Join(dir, ReceiptFile), data); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to write install receipt").
			WithCause(err)
	}
	return nil
}

func (a ReceiptFileAdapter) ReadReceipt(dir string) (types.InstallReceipt, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReceiptFile))
	if errors.Is(err, fs.ErrNotExist) {
		return types.InstallReceipt{}, false, nil
	}
	if err != nil {
		return types.InstallReceipt{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read install receipt").
			WithCause(err)
	}
	var doc receiptDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.InstallReceipt{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid install receipt in " + dir).
			WithCause(err)
	}
	receipt := doc.InstallReceipt
	receipt.InstalledAt = parseTimeFlexible(doc.InstalledAt)
	return receipt, true, nil
}

func (a ReceiptFileAdapter) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// parseTimeFlexible accepts receipts written by hand or by older releases.
func parseTimeFlexible(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

var _ ports.ReceiptPort = ReceiptFileAdapter{}
