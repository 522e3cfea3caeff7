package editor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksign/inksign/internal/compose"
	"github.com/inksign/inksign/internal/field"
	"github.com/inksign/inksign/internal/store"
	"github.com/inksign/inksign/internal/viewport"
)

func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 12)
		doc.Text(72, 72, "Contract body")
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("Failed to build test PDF: %v", err)
	}
	return buf.Bytes()
}

// newTestSession seeds a memory gateway with one document and its blob and
// returns a loaded session against it.
func newTestSession(t *testing.T) (*Session, *store.Memory, string) {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory(time.Hour)

	m.PutBlob("owner/contract.pdf", buildPDF(t, 2))
	id, err := m.CreateDocument(ctx, &store.DocumentRecord{
		OwnerID:  "owner@example.com",
		Title:    "Contract",
		FileName: "contract.pdf",
		FilePath: "owner/contract.pdf",
		Status:   store.StatusDraft,
	})
	require.NoError(t, err)

	comp := compose.NewComposer(0, zerolog.Nop())
	s := NewSession(id, m, m, comp, zerolog.Nop())
	require.NoError(t, s.Load(ctx))
	return s, m, id
}

func placement(typ field.Type, value string) Placement {
	return Placement{
		Click:       viewport.Point{X: 200, Y: 150},
		Container:   viewport.Rect{Left: 0, Top: 0, Width: 800, Height: 600},
		ScrollTop:   0,
		Type:        typ,
		SignerEmail: "signer@example.com",
		Required:    true,
		Value:       value,
	}
}

func TestSessionLoad(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NotNil(t, s.Document())
	assert.Equal(t, "Contract", s.Document().Title)
	assert.Equal(t, 0, s.Fields.Len())
	assert.Equal(t, 1, s.PageCount())
}

func TestSessionLoadMissingDocument(t *testing.T) {
	m := store.NewMemory(time.Hour)
	s := NewSession("missing", m, m, compose.NewComposer(0, zerolog.Nop()), zerolog.Nop())
	err := s.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionLoadNarrowsRows(t *testing.T) {
	ctx := context.Background()
	s, m, id := newTestSession(t)

	badType := "checkbox"
	require.NoError(t, m.ReplaceFields(ctx, id, []field.Row{
		{PageNumber: 0, XPosition: 10, YPosition: 10, SignerEmail: "a@b.com", FieldType: &badType},
	}))
	require.NoError(t, s.Load(ctx))

	require.Equal(t, 1, s.Fields.Len())
	f, err := s.Fields.At(0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.PageNumber, "page below one narrows to one")
	assert.Equal(t, field.TypeText, f.Type, "unknown type narrows to text")
	assert.Equal(t, field.DefaultWidth, f.Width)
}

func TestSessionObserveViewer(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.ObserveViewer(1800, 600)
	assert.Equal(t, 3, s.PageCount())
	s.ObserveViewer(0, 0)
	assert.Equal(t, 1, s.PageCount())
}

func TestSessionPlaceField(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.ObserveViewer(1200, 600) // two pages

	f, err := s.PlaceField(placement(field.TypeSignature, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Fields.Len())
	assert.Equal(t, 25.0, f.XPosition)
	assert.Equal(t, 25.0, f.YPosition)
	assert.Equal(t, 1, f.PageNumber)
	assert.Equal(t, field.DefaultWidth, f.Width)
	assert.Equal(t, field.DefaultHeight, f.Height)

	// A click with heavy scroll lands on the second page.
	p := placement(field.TypeName, "Jane Doe")
	p.ScrollTop = 900
	f, err = s.PlaceField(p)
	require.NoError(t, err)
	assert.Equal(t, 2, f.PageNumber)
	assert.Equal(t, "Jane Doe", f.Value)
}

func TestSessionPlaceFieldValidation(t *testing.T) {
	s, _, _ := newTestSession(t)

	p := placement(field.TypeName, "Jane Doe")
	p.SignerEmail = "not-an-email"
	if _, err := s.PlaceField(p); err == nil {
		t.Error("Expected invalid signer email to be rejected")
	}

	p = placement(field.TypeInitials, "TOOLONG")
	if _, err := s.PlaceField(p); err == nil {
		t.Error("Expected over-length value to be rejected")
	}

	assert.Equal(t, 0, s.Fields.Len(), "rejected placements must not be stored")
}

func TestSessionPlaceFieldClampsPosition(t *testing.T) {
	s, _, _ := newTestSession(t)

	p := placement(field.TypeSignature, "")
	p.Click = viewport.Point{X: -50, Y: 700} // outside the container
	f, err := s.PlaceField(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.XPosition)
	assert.Equal(t, 100.0, f.YPosition)
}

func TestSessionPlaceFieldZeroGeometry(t *testing.T) {
	s, _, _ := newTestSession(t)

	// A still-measuring viewer reports a zero-size container; the
	// placement must land at the origin, never store NaN coordinates.
	p := placement(field.TypeSignature, "")
	p.Container = viewport.Rect{}
	f, err := s.PlaceField(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.XPosition)
	assert.Equal(t, 0.0, f.YPosition)
	require.NoError(t, f.Validate())
}

func TestSessionRemoveField(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.PlaceField(placement(field.TypeSignature, ""))
	require.NoError(t, err)

	require.NoError(t, s.RemoveField(0))
	assert.Equal(t, 0, s.Fields.Len())
	assert.Error(t, s.RemoveField(0))
}

func TestSessionSaveReplacesAll(t *testing.T) {
	ctx := context.Background()
	s, m, id := newTestSession(t)

	_, err := s.PlaceField(placement(field.TypeSignature, ""))
	require.NoError(t, err)
	_, err = s.PlaceField(placement(field.TypeDate, "2026-08-29"))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	rows, err := m.ListFields(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Removing one field and saving again leaves exactly one row.
	require.NoError(t, s.RemoveField(0))
	require.NoError(t, s.Save(ctx))
	rows, err = m.ListFields(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].FieldType)
	assert.Equal(t, "date", *rows[0].FieldType)

	// Saves append to the audit log.
	var saves int
	for _, a := range m.Audits() {
		if a.Action == "fields_saved" {
			saves++
		}
	}
	assert.Equal(t, 2, saves)
}

// reentrantGateway drives a second Save from inside ReplaceFields to
// observe the in-flight flag.
type reentrantGateway struct {
	*store.Memory
	during func()
}

func (g *reentrantGateway) ReplaceFields(ctx context.Context, documentID string, rows []field.Row) error {
	if g.during != nil {
		g.during()
	}
	return g.Memory.ReplaceFields(ctx, documentID, rows)
}

func TestSessionSaveInProgress(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(time.Hour)
	m.PutBlob("p/doc.pdf", buildPDF(t, 1))
	id, err := m.CreateDocument(ctx, &store.DocumentRecord{
		OwnerID: "o@example.com", FileName: "doc.pdf", FilePath: "p/doc.pdf", Status: store.StatusDraft,
	})
	require.NoError(t, err)

	gw := &reentrantGateway{Memory: m}
	s := NewSession(id, gw, m, compose.NewComposer(0, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s.Load(ctx))

	var overlapping error
	var sawSaving bool
	gw.during = func() {
		sawSaving = s.Saving()
		overlapping = s.Save(ctx)
	}

	require.NoError(t, s.Save(ctx))
	assert.True(t, sawSaving, "expected Saving() true during a save")
	assert.ErrorIs(t, overlapping, ErrSaveInProgress)
	assert.False(t, s.Saving(), "expected flag cleared after completion")
}

// failingGateway fails every ReplaceFields call.
type failingGateway struct {
	*store.Memory
}

func (g *failingGateway) ReplaceFields(context.Context, string, []field.Row) error {
	return errors.New("backend unavailable")
}

func TestSessionSaveFailurePreservesState(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(time.Hour)
	m.PutBlob("p/doc.pdf", buildPDF(t, 1))
	id, err := m.CreateDocument(ctx, &store.DocumentRecord{
		OwnerID: "o@example.com", FileName: "doc.pdf", FilePath: "p/doc.pdf", Status: store.StatusDraft,
	})
	require.NoError(t, err)

	s := NewSession(id, &failingGateway{Memory: m}, m, compose.NewComposer(0, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s.Load(ctx))
	_, err = s.PlaceField(placement(field.TypeName, "Jane Doe"))
	require.NoError(t, err)

	require.Error(t, s.Save(ctx))
	assert.Equal(t, 1, s.Fields.Len(), "in-memory fields survive a failed save")
	assert.False(t, s.Saving(), "flag cleared after a failed save")

	// A retry is allowed immediately.
	assert.Error(t, s.Save(ctx))
}

func TestSessionDownload(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newTestSession(t)

	_, err := s.PlaceField(placement(field.TypeName, "Jane Doe"))
	require.NoError(t, err)

	data, name, err := s.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, "signed-contract.pdf", name)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "expected a PDF artifact")

	var downloads int
	for _, a := range m.Audits() {
		if a.Action == "document_downloaded" {
			downloads++
		}
	}
	assert.Equal(t, 1, downloads)
}

func TestSessionDownloadNameNormalization(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(time.Hour)
	m.PutBlob("p/scan", buildPDF(t, 1))
	id, err := m.CreateDocument(ctx, &store.DocumentRecord{
		OwnerID: "o@example.com", FileName: "Scan Copy", FilePath: "p/scan", Status: store.StatusDraft,
	})
	require.NoError(t, err)

	s := NewSession(id, m, m, compose.NewComposer(0, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s.Load(ctx))

	_, name, err := s.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, "signed-Scan Copy.pdf", name)
	assert.True(t, strings.HasPrefix(name, "signed-"))
}

func TestSessionDownloadBeforeLoad(t *testing.T) {
	m := store.NewMemory(time.Hour)
	s := NewSession("doc", m, m, compose.NewComposer(0, zerolog.Nop()), zerolog.Nop())
	_, _, err := s.Download(context.Background())
	assert.Error(t, err)
}

func TestSessionDownloadExpiredLink(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newTestSession(t)

	s2 := NewSession(s.documentID, m, expiredFetcher{}, compose.NewComposer(0, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, s2.Load(ctx))
	_, _, err := s2.Download(ctx)
	assert.ErrorIs(t, err, store.ErrLinkExpired)
}

type expiredFetcher struct{}

func (expiredFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, store.ErrLinkExpired
}
