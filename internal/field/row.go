package field

import (
	"encoding/json"
	"fmt"
	"os"
)

// Row is the raw persisted shape of a signature field, one row per field
// keyed by document_id. Columns are loosely typed on the storage side, so
// loading always goes through FromRow to narrow them.
type Row struct {
	ID            string   `json:"id,omitempty"`
	DocumentID    string   `json:"document_id"`
	PageNumber    int      `json:"page_number"`
	XPosition     float64  `json:"x_position"`
	YPosition     float64  `json:"y_position"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	SignerEmail   string   `json:"signer_email"`
	FieldType     *string  `json:"field_type"`
	IsRequired    *bool    `json:"is_required"`
	SignatureData *string  `json:"signature_data"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// Default overlay box dimensions, device pixels at the 800x600 reference.
const (
	DefaultWidth  = 150.0
	DefaultHeight = 50.0
)

// FromRow narrows a raw persisted row into a typed Field. Unknown field
// types degrade to text, a missing signature_data column is tolerated, and
// missing dimensions get the viewer defaults.
func FromRow(r Row) Field {
	f := Field{
		ID:          r.ID,
		DocumentID:  r.DocumentID,
		PageNumber:  r.PageNumber,
		XPosition:   r.XPosition,
		YPosition:   r.YPosition,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		SignerEmail: r.SignerEmail,
		Type:        TypeSignature,
		Required:    true,
	}
	if r.PageNumber < 1 {
		f.PageNumber = 1
	}
	if r.Width != nil && *r.Width > 0 {
		f.Width = *r.Width
	}
	if r.Height != nil && *r.Height > 0 {
		f.Height = *r.Height
	}
	if r.FieldType != nil {
		f.Type = ParseType(*r.FieldType)
	}
	if r.IsRequired != nil {
		f.Required = *r.IsRequired
	}
	if r.SignatureData != nil {
		f.Value = *r.SignatureData
	}
	return f
}

// ToRow converts a typed Field back into the persisted row shape for a
// document. The row id is intentionally left blank: saves reassign ids.
func ToRow(documentID string, f Field) Row {
	width, height := f.Width, f.Height
	fieldType := string(f.Type)
	required := f.Required
	row := Row{
		DocumentID:  documentID,
		PageNumber:  f.PageNumber,
		XPosition:   f.XPosition,
		YPosition:   f.YPosition,
		Width:       &width,
		Height:      &height,
		SignerEmail: f.SignerEmail,
		FieldType:   &fieldType,
		IsRequired:  &required,
	}
	if f.Value != "" {
		value := f.Value
		row.SignatureData = &value
	}
	return row
}

// ReadRowsFile loads persisted field rows from a JSON file. The file holds
// a plain array of rows in the storage shape.
func ReadRowsFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rows file: %w", err)
	}
	return rows, nil
}
