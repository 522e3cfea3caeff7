// Package field holds the data model for positioned signature fields and
// the in-memory collection backing one editing session.
package field

import (
	"fmt"
	"strings"
)

// Type identifies what kind of value a field carries.
type Type string

const (
	TypeSignature Type = "signature"
	TypeInitials  Type = "initials"
	TypeName      Type = "name"
	TypeDate      Type = "date"
	TypeText      Type = "text"
	TypeCompany   Type = "company"
)

// ParseType narrows a loosely typed persisted value to the closed set of
// field types. Anything unrecognized falls back to a plain text field.
func ParseType(raw string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeSignature:
		return TypeSignature
	case TypeInitials:
		return TypeInitials
	case TypeName:
		return TypeName
	case TypeDate:
		return TypeDate
	case TypeCompany:
		return TypeCompany
	case TypeText:
		return TypeText
	default:
		return TypeText
	}
}

// Valid reports whether t is one of the six known field types.
func (t Type) Valid() bool {
	switch t {
	case TypeSignature, TypeInitials, TypeName, TypeDate, TypeText, TypeCompany:
		return true
	}
	return false
}

// MaxValueLen returns the maximum accepted value length for a field type.
// Signature fields carry data URIs and are not length limited here.
func MaxValueLen(t Type) int {
	switch t {
	case TypeInitials:
		return 5
	case TypeDate:
		return 20
	case TypeName, TypeCompany:
		return 50
	case TypeText:
		return 100
	default:
		return 0
	}
}

// Field is a positioned annotation on one page of one document.
//
// XPosition and YPosition are percentages of the page width and height with
// a top-left origin. Width and Height are device pixels at the fixed
// 800x600 reference page size used by the viewer overlay.
type Field struct {
	ID          string  `json:"id,omitempty"`
	DocumentID  string  `json:"document_id,omitempty"`
	PageNumber  int     `json:"page_number"`
	XPosition   float64 `json:"x_position"`
	YPosition   float64 `json:"y_position"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	SignerEmail string  `json:"signer_email"`
	Type        Type    `json:"field_type"`
	Required    bool    `json:"is_required"`

	// Value is either an image data URI (signature fields with a drawn or
	// uploaded image) or a plain string for every other type.
	Value string `json:"signature_data,omitempty"`
}

// HasValue reports whether the field carries a payload worth rendering.
func (f Field) HasValue() bool {
	return strings.TrimSpace(f.Value) != ""
}

// Validate checks the structural invariants of a field.
func (f Field) Validate() error {
	if f.PageNumber < 1 {
		return fmt.Errorf("page number must be >= 1, got %d", f.PageNumber)
	}
	// NaN compares false against every bound, so the range checks are
	// phrased to reject it rather than let it slip through.
	if !(f.XPosition >= 0 && f.XPosition <= 100) {
		return fmt.Errorf("x position out of range [0,100]: %g", f.XPosition)
	}
	if !(f.YPosition >= 0 && f.YPosition <= 100) {
		return fmt.Errorf("y position out of range [0,100]: %g", f.YPosition)
	}
	if !(f.Width > 0 && f.Height > 0) {
		return fmt.Errorf("field dimensions must be positive: %gx%g", f.Width, f.Height)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("unknown field type: %q", f.Type)
	}
	if strings.TrimSpace(f.SignerEmail) == "" {
		return fmt.Errorf("signer email cannot be empty")
	}
	return nil
}

// ValidateValue trims and validates a plain value for a non-signature field
// type. Empty or whitespace-only input is rejected before any IO happens.
func ValidateValue(t Type, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("value cannot be empty")
	}
	if maxLen := MaxValueLen(t); maxLen > 0 && len(trimmed) > maxLen {
		return "", fmt.Errorf("value too long for %s field: %d characters (max %d)",
			t, len(trimmed), maxLen)
	}
	return trimmed, nil
}
