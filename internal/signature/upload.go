package signature

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Upload holds the current image selected for a signature, read fully into
// memory and exposed as a data URI preview before commit. Reading a new
// file replaces any prior preview.
type Upload struct {
	preview string
}

// NewUpload returns an upload with no selected image.
func NewUpload() *Upload {
	return &Upload{}
}

// MaxUploadBytes bounds a single signature image read.
const MaxUploadBytes = 10 * 1024 * 1024

// Read consumes a selected file and stores it as the preview. Only image
// payloads are accepted; content type is sniffed from the bytes, with the
// declared type used when sniffing is inconclusive.
func (u *Upload) Read(r io.Reader, declaredType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read signature image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("signature image is empty")
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("signature image too large (max %d bytes)", MaxUploadBytes)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		if !strings.HasPrefix(declaredType, "image/") {
			return "", fmt.Errorf("file is not an image: %s", mimeType)
		}
		mimeType = declaredType
	}

	u.preview = EncodeDataURI(mimeType, data)
	return u.preview, nil
}

// Preview returns the current data URI preview, empty when nothing has
// been selected.
func (u *Upload) Preview() string {
	return u.preview
}

// Clear drops the current preview so state does not leak into the next
// capture invocation.
func (u *Upload) Clear() {
	u.preview = ""
}
