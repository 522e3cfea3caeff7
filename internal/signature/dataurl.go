// Package signature produces field payloads: raster signature images from
// freehand strokes or uploaded files, and validated plain values for
// text-like field types.
package signature

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ImageFormat is the raster format of an embedded signature image.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "PNG"
	FormatJPEG ImageFormat = "JPG"
)

const dataURIPrefix = "data:image"

// IsImageDataURI reports whether a payload looks like an image data URI.
func IsImageDataURI(s string) bool {
	return strings.HasPrefix(s, dataURIPrefix)
}

// EncodeDataURI encodes raw image bytes as a data URI with the given MIME
// type, e.g. "image/png".
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// SniffFormat inspects the MIME segment of an image data URI and decides
// between PNG and JPEG embedding. Anything ambiguous defaults to PNG; a
// wrong guess surfaces later as an embedding failure and is recovered with
// the text fallback.
func SniffFormat(dataURI string) ImageFormat {
	head := dataURI
	if i := strings.Index(dataURI, ","); i >= 0 {
		head = dataURI[:i]
	}
	if strings.Contains(head, "image/jpeg") || strings.Contains(head, "image/jpg") {
		return FormatJPEG
	}
	return FormatPNG
}

// DecodeDataURI splits an image data URI and decodes its base64 payload.
func DecodeDataURI(dataURI string) ([]byte, ImageFormat, error) {
	if !IsImageDataURI(dataURI) {
		return nil, "", fmt.Errorf("not an image data URI")
	}
	i := strings.Index(dataURI, ",")
	if i < 0 {
		return nil, "", fmt.Errorf("malformed data URI: missing payload separator")
	}
	data, err := base64.StdEncoding.DecodeString(dataURI[i+1:])
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return data, SniffFormat(dataURI), nil
}
