// Package editor runs one document's editing session: loading persisted
// fields, placing new ones from viewer clicks, drag repositioning, saving
// the full set back, and producing the signed download artifact.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/inksign/inksign/internal/compose"
	"github.com/inksign/inksign/internal/field"
	"github.com/inksign/inksign/internal/share"
	"github.com/inksign/inksign/internal/store"
	"github.com/inksign/inksign/internal/viewport"
)

// ErrSaveInProgress rejects a save issued while another save for the same
// document is still outstanding. The caller ignores it or retries after
// completion; requests are never silently reordered.
var ErrSaveInProgress = errors.New("a save is already in progress for this document")

// Audit actions recorded by the session.
const (
	auditActionSave     = "fields_saved"
	auditActionDownload = "document_downloaded"
)

// Placement describes one completed placement interaction: where the user
// clicked, the current viewer geometry, and the captured payload.
type Placement struct {
	Click       viewport.Point
	Container   viewport.Rect
	ScrollTop   float64
	Type        field.Type
	SignerEmail string
	Required    bool
	// Value is the captured payload: an image data URI for signature
	// fields, a validated plain value otherwise. May be empty for fields
	// placed for someone else to fill in.
	Value string
}

// Session is the single mutable editing state for one open document. It is
// only ever driven from one goroutine; the in-flight save flag serializes
// saves without locking.
type Session struct {
	documentID string
	doc        *store.DocumentRecord

	gw      store.Gateway
	fetcher store.Fetcher
	comp    *compose.Composer
	log     zerolog.Logger

	Fields    *field.Store
	Drag      *viewport.DragController
	Estimator viewport.PageEstimator

	pageCount    int
	saveInFlight bool
}

// NewSession creates a session for the document. Load must run before
// fields are available.
func NewSession(documentID string, gw store.Gateway, fetcher store.Fetcher, comp *compose.Composer, logger zerolog.Logger) *Session {
	return &Session{
		documentID: documentID,
		gw:         gw,
		fetcher:    fetcher,
		comp:       comp,
		log:        logger.With().Str("document", documentID).Logger(),
		Fields:     field.NewStore(),
		Drag:       viewport.NewDragController(),
		Estimator:  viewport.NewPageEstimator(),
		pageCount:  1,
	}
}

// Document returns the loaded document record, nil before Load.
func (s *Session) Document() *store.DocumentRecord {
	return s.doc
}

// PageCount returns the current page count estimate.
func (s *Session) PageCount() int {
	return s.pageCount
}

// Load fetches the document record and its persisted fields, narrowing the
// raw rows into typed fields. A load failure is fatal to the session and
// surfaced to the caller.
func (s *Session) Load(ctx context.Context) error {
	doc, err := s.gw.Document(ctx, s.documentID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	rows, err := s.gw.ListFields(ctx, s.documentID)
	if err != nil {
		return fmt.Errorf("failed to load fields: %w", err)
	}

	s.doc = doc
	s.Fields.LoadRows(rows)
	s.log.Debug().Int("fields", s.Fields.Len()).Msg("session loaded")
	return nil
}

// ObserveViewer updates the page count estimate from the viewer's scroll
// geometry. Estimation never fails; bad geometry degrades to one page.
func (s *Session) ObserveViewer(scrollHeight, viewportHeight float64) {
	s.pageCount = s.Estimator.EstimatePageCount(scrollHeight, viewportHeight)
}

// PlaceField turns a completed placement interaction into a new field:
// the click maps to a percentage position and a page, validation runs
// before anything is stored, and the field is appended to the store.
func (s *Session) PlaceField(p Placement) (field.Field, error) {
	email, err := share.ValidateEmail(p.SignerEmail)
	if err != nil {
		return field.Field{}, err
	}
	value := p.Value
	if value != "" && p.Type != field.TypeSignature {
		if value, err = field.ValidateValue(p.Type, value); err != nil {
			return field.Field{}, err
		}
	}

	x, y := viewport.ToPercentage(p.Click, p.Container)
	x = clampPct(x)
	y = clampPct(y)
	page := s.Estimator.DetectPage(p.Click.Y-p.Container.Top, p.Container, p.ScrollTop, s.pageCount)

	f := field.Field{
		DocumentID:  s.documentID,
		PageNumber:  page,
		XPosition:   x,
		YPosition:   y,
		Width:       field.DefaultWidth,
		Height:      field.DefaultHeight,
		SignerEmail: email,
		Type:        p.Type,
		Required:    p.Required,
		Value:       value,
	}
	if err := f.Validate(); err != nil {
		return field.Field{}, err
	}

	s.Fields.Add(f)
	s.log.Debug().Str("type", string(p.Type)).Int("page", page).Msg("field placed")
	return f, nil
}

// RemoveField deletes the field at index, shifting later indices down.
func (s *Session) RemoveField(index int) error {
	return s.Fields.RemoveAt(index)
}

// Save persists the full current field set, unconditionally replacing the
// stored set for this document. While a save is outstanding another Save
// returns ErrSaveInProgress; on failure the in-memory state is preserved
// unchanged so the user can retry.
func (s *Session) Save(ctx context.Context) error {
	if s.saveInFlight {
		return ErrSaveInProgress
	}
	s.saveInFlight = true
	defer func() { s.saveInFlight = false }()

	rows := s.Fields.Rows(s.documentID)
	if err := s.gw.ReplaceFields(ctx, s.documentID, rows); err != nil {
		return fmt.Errorf("failed to save fields: %w", err)
	}

	s.audit(ctx, auditActionSave, fmt.Sprintf("%d fields", len(rows)))
	s.log.Info().Int("fields", len(rows)).Msg("fields saved")
	return nil
}

// Saving reports whether a save is currently outstanding, so the UI can
// show an in-progress state.
func (s *Session) Saving() bool {
	return s.saveInFlight
}

// Download fetches the original PDF through a fresh signed URL, composites
// the current fields onto it and returns the artifact bytes with the
// suggested file name. Any failure to obtain the original bytes is fatal
// and surfaced; per-field problems are recovered inside the compositor.
func (s *Session) Download(ctx context.Context) ([]byte, string, error) {
	if s.doc == nil {
		return nil, "", fmt.Errorf("session not loaded")
	}

	url, err := s.gw.SignedURL(ctx, s.doc.FilePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve document URL: %w", err)
	}
	original, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch original document: %w", err)
	}

	data, err := s.comp.Compose(original, s.Fields.Fields())
	if err != nil {
		return nil, "", err
	}

	name := s.doc.FileName
	if name == "" {
		name = "document.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	name = "signed-" + name

	s.audit(ctx, auditActionDownload, name)
	return data, name, nil
}

// audit appends an entry to the document's audit log. Audit failures are
// logged, never surfaced: they must not fail the operation they describe.
func (s *Session) audit(ctx context.Context, action, details string) {
	entry := store.AuditRecord{
		DocumentID: s.documentID,
		UserEmail:  s.ownerEmail(),
		Action:     action,
		Details:    details,
	}
	if err := s.gw.AppendAudit(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit append failed")
	}
}

func (s *Session) ownerEmail() string {
	if s.doc != nil {
		return s.doc.OwnerID
	}
	return ""
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
