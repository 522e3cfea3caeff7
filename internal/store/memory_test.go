package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksign/inksign/internal/field"
)

func TestMemoryDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	id, err := m.CreateDocument(ctx, &DocumentRecord{
		OwnerID:  "user-1",
		Title:    "Contract",
		FileName: "contract.pdf",
		FilePath: "user-1/contract.pdf",
		FileSize: 1234,
		Status:   StatusDraft,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.Document(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Contract", doc.Title)
	assert.Equal(t, StatusDraft, doc.Status)
	assert.False(t, doc.CreatedAt.IsZero())

	_, err = m.Document(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func strPtr(v string) *string { return &v }

func TestMemoryReplaceFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	first := []field.Row{
		{PageNumber: 1, XPosition: 10, YPosition: 10, SignerEmail: "a@b.com", FieldType: strPtr("signature")},
		{PageNumber: 2, XPosition: 20, YPosition: 20, SignerEmail: "c@d.com", FieldType: strPtr("date")},
	}
	require.NoError(t, m.ReplaceFields(ctx, "doc-1", first))

	rows, err := m.ListFields(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	firstIDs := []string{rows[0].ID, rows[1].ID}
	assert.NotEmpty(t, firstIDs[0])
	assert.Equal(t, "doc-1", rows[0].DocumentID)

	// Saving [A] after [A, B] leaves exactly one row, with a fresh id.
	require.NoError(t, m.ReplaceFields(ctx, "doc-1", first[:1]))
	rows, err = m.ListFields(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotContains(t, firstIDs, rows[0].ID)

	// Saving an empty set clears the document's rows.
	require.NoError(t, m.ReplaceFields(ctx, "doc-1", nil))
	rows, err = m.ListFields(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryReplaceFieldsIsolatedPerDocument(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	require.NoError(t, m.ReplaceFields(ctx, "doc-1", []field.Row{{PageNumber: 1, SignerEmail: "a@b.com"}}))
	require.NoError(t, m.ReplaceFields(ctx, "doc-2", []field.Row{{PageNumber: 1, SignerEmail: "c@d.com"}}))
	require.NoError(t, m.ReplaceFields(ctx, "doc-1", nil))

	rows, err := m.ListFields(ctx, "doc-2")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "clearing doc-1 must not touch doc-2")
}

func TestMemoryShares(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	id, err := m.CreateShare(ctx, &ShareRecord{
		DocumentID:     "doc-1",
		RecipientEmail: "r@example.com",
		ShareToken:     "tok-1",
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	shares, err := m.ListShares(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "tok-1", shares[0].ShareToken)

	shares, err = m.ListShares(ctx, "doc-other")
	require.NoError(t, err)
	assert.Empty(t, shares)

	require.NoError(t, m.DeleteShare(ctx, id))
	assert.ErrorIs(t, m.DeleteShare(ctx, id), ErrNotFound)
}

func TestMemoryAudit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	require.NoError(t, m.AppendAudit(ctx, AuditRecord{
		DocumentID: "doc-1",
		UserEmail:  "a@b.com",
		Action:     "fields_saved",
		Details:    "2 fields",
	}))
	require.NoError(t, m.AppendAudit(ctx, AuditRecord{
		DocumentID: "doc-1",
		Action:     "document_downloaded",
	}))

	audits := m.Audits()
	require.Len(t, audits, 2)
	assert.Equal(t, "fields_saved", audits[0].Action)
	assert.NotEmpty(t, audits[0].ID)
	assert.False(t, audits[0].CreatedAt.IsZero())
}

func TestMemorySignedURLAndFetch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	m.PutBlob("user-1/contract.pdf", []byte("%PDF-1.4 blob"))

	url, err := m.SignedURL(ctx, "user-1/contract.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "memory://user-1/contract.pdf?expires=")

	data, err := m.Fetch(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 blob"), data)

	_, err = m.SignedURL(ctx, "missing/path.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFetchExpiredLink(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	m.PutBlob("p/doc.pdf", []byte("blob"))

	base := time.Now()
	m.SetClock(func() time.Time { return base })
	url, err := m.SignedURL(ctx, "p/doc.pdf")
	require.NoError(t, err)

	// Advance past the TTL: the minted link must stop working.
	m.SetClock(func() time.Time { return base.Add(2 * time.Minute) })
	_, err = m.Fetch(ctx, url)
	assert.True(t, errors.Is(err, ErrLinkExpired), "expected expired link error, got %v", err)
}
