// Package store defines the persistence gateway the editor depends on and
// its backends. The gateway is always injected, never reached through a
// package-level singleton, so every consumer can run against the
// in-memory implementation in tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/inksign/inksign/internal/field"
)

// Sentinel errors shared by gateway implementations.
var (
	ErrNotFound    = errors.New("record not found")
	ErrLinkExpired = errors.New("signed link expired")
)

// Document statuses.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// DocumentRecord describes one uploaded document and its PDF blob.
type DocumentRecord struct {
	ID        string    `json:"id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ShareRecord grants a recipient time-limited access to a document.
type ShareRecord struct {
	ID             string    `json:"id,omitempty"`
	DocumentID     string    `json:"document_id"`
	RecipientEmail string    `json:"recipient_email"`
	ShareToken     string    `json:"share_token"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsSigned       bool      `json:"is_signed"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// AuditRecord is one append-only audit log entry for a document.
type AuditRecord struct {
	ID         string    `json:"id,omitempty"`
	DocumentID string    `json:"document_id"`
	UserEmail  string    `json:"user_email"`
	Action     string    `json:"action"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Gateway is the persistence and blob-storage facade the core depends on.
//
// ReplaceFields implements save as delete-all-then-insert-all for the
// document: row ids are reassigned on every save, and callers must not
// rely on ids staying stable across saves.
type Gateway interface {
	Document(ctx context.Context, id string) (*DocumentRecord, error)
	CreateDocument(ctx context.Context, doc *DocumentRecord) (string, error)

	ListFields(ctx context.Context, documentID string) ([]field.Row, error)
	ReplaceFields(ctx context.Context, documentID string, rows []field.Row) error

	CreateShare(ctx context.Context, share *ShareRecord) (string, error)
	ListShares(ctx context.Context, documentID string) ([]ShareRecord, error)
	DeleteShare(ctx context.Context, shareID string) error

	AppendAudit(ctx context.Context, entry AuditRecord) error

	// SignedURL returns a time-limited URL serving the blob at the given
	// storage path. Expiry surfaces to callers as a fetch failure.
	SignedURL(ctx context.Context, storagePath string) (string, error)
}

// Fetcher retrieves blob bytes from a signed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
