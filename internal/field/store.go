package field

import "fmt"

// Update is a partial field update. Nil members leave the corresponding
// field attribute untouched; drag only ever sets the two positions.
type Update struct {
	XPosition   *float64
	YPosition   *float64
	PageNumber  *int
	SignerEmail *string
	Value       *string
}

// Store is the ordered collection of fields for one open document.
// Identity within an editing session is positional, so Add, RemoveAt and
// UpdateAt must keep indices stable between calls. The store is only ever
// mutated from a single goroutine and needs no locking.
type Store struct {
	fields []Field
}

// NewStore creates an empty field store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of fields currently held.
func (s *Store) Len() int {
	return len(s.fields)
}

// Add appends a field to the collection.
func (s *Store) Add(f Field) {
	s.fields = append(s.fields, f)
}

// At returns the field at index i.
func (s *Store) At(i int) (Field, error) {
	if i < 0 || i >= len(s.fields) {
		return Field{}, fmt.Errorf("field index out of range: %d (have %d)", i, len(s.fields))
	}
	return s.fields[i], nil
}

// RemoveAt deletes the field at index i, shifting subsequent indices down.
func (s *Store) RemoveAt(i int) error {
	if i < 0 || i >= len(s.fields) {
		return fmt.Errorf("field index out of range: %d (have %d)", i, len(s.fields))
	}
	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	return nil
}

// UpdateAt merges a partial update into the field at index i. Attributes
// not present in the update are left unchanged.
func (s *Store) UpdateAt(i int, u Update) error {
	if i < 0 || i >= len(s.fields) {
		return fmt.Errorf("field index out of range: %d (have %d)", i, len(s.fields))
	}
	f := &s.fields[i]
	if u.XPosition != nil {
		f.XPosition = *u.XPosition
	}
	if u.YPosition != nil {
		f.YPosition = *u.YPosition
	}
	if u.PageNumber != nil {
		f.PageNumber = *u.PageNumber
	}
	if u.SignerEmail != nil {
		f.SignerEmail = *u.SignerEmail
	}
	if u.Value != nil {
		f.Value = *u.Value
	}
	return nil
}

// ReplaceAll swaps the whole collection, used when loading persisted rows
// and when restoring a snapshot. The input slice is copied.
func (s *Store) ReplaceAll(fields []Field) {
	s.fields = make([]Field, len(fields))
	copy(s.fields, fields)
}

// LoadRows replaces the collection with typed fields narrowed from raw
// persisted rows.
func (s *Store) LoadRows(rows []Row) {
	fields := make([]Field, 0, len(rows))
	for _, r := range rows {
		fields = append(fields, FromRow(r))
	}
	s.fields = fields
}

// Fields returns a copy of the current collection in order.
func (s *Store) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Rows converts the current collection into persisted rows for a document,
// the source set for a save.
func (s *Store) Rows(documentID string) []Row {
	rows := make([]Row, 0, len(s.fields))
	for _, f := range s.fields {
		rows = append(rows, ToRow(documentID, f))
	}
	return rows
}
