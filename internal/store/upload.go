package store

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"
)

// NewUpload validates a PDF upload and builds the draft document record
// for it, including the storage path the blob is written under. No IO
// happens here; rejected uploads leave no partial state behind.
func NewUpload(ownerID, fileName string, data []byte, maxFileSize int64, now time.Time) (*DocumentRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("owner cannot be empty")
	}
	name := path.Base(fileName)
	if err := ValidateUpload(name, data, maxFileSize); err != nil {
		return nil, err
	}
	return &DocumentRecord{
		OwnerID:  ownerID,
		Title:    strings.TrimSuffix(name, path.Ext(name)),
		FileName: name,
		FilePath: StoragePath(ownerID, name, now),
		FileSize: int64(len(data)),
		Status:   StatusDraft,
	}, nil
}

// StoragePath builds the blob key for an upload: the owner's prefix plus a
// millisecond timestamp, so repeated uploads of the same file never
// collide.
func StoragePath(ownerID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", ownerID, now.UnixMilli(), fileName)
}

// ValidateUpload applies the upload constraints before any storage IO: a
// .pdf extension, the PDF header, non-empty content and the configured
// size limit. The extension check catches renamed files only; the header
// sniff catches files that merely carry the extension.
func ValidateUpload(fileName string, data []byte, maxFileSize int64) error {
	if strings.ToLower(path.Ext(fileName)) != ".pdf" {
		return fmt.Errorf("file is not a PDF: %s", fileName)
	}
	if len(data) == 0 {
		return fmt.Errorf("file is empty: %s", fileName)
	}
	if maxFileSize > 0 && int64(len(data)) > maxFileSize {
		return fmt.Errorf("file too large: %s is %d bytes (max: %d bytes)",
			fileName, len(data), maxFileSize)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return fmt.Errorf("file is not a PDF: %s", fileName)
	}
	return nil
}
