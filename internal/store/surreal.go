package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/inksign/inksign/internal/field"
)

// Table names, matching the persisted schema.
const (
	tableDocuments = "documents"
	tableFields    = "signature_fields"
	tableShares    = "document_shares"
	tableAudits    = "audit_logs"
)

// SurrealConfig carries the connection settings for the SurrealDB-backed
// gateway and the blob-storage facade it issues signed URLs against.
type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string

	// StorageBaseURL is the public root of the blob store holding the PDF
	// uploads; signed URLs are minted relative to it.
	StorageBaseURL string
	SignedURLTTL   time.Duration
}

// Surreal implements Gateway against a SurrealDB instance.
//
// The underlying client carries no context plumbing; ctx is honored for
// early cancellation checks only.
type Surreal struct {
	db  *surrealdb.DB
	cfg SurrealConfig
	log zerolog.Logger
	now func() time.Time
}

// DialSurreal connects, signs in and selects the configured namespace and
// database.
func DialSurreal(cfg SurrealConfig, logger zerolog.Logger) (*Surreal, error) {
	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb at %s: %w", cfg.URL, err)
	}
	if cfg.Username != "" {
		if _, err := db.Signin(map[string]any{"user": cfg.Username, "pass": cfg.Password}); err != nil {
			db.Close()
			return nil, fmt.Errorf("surrealdb signin failed: %w", err)
		}
	}
	if _, err := db.Use(cfg.Namespace, cfg.Database); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to select %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = time.Hour
	}
	return &Surreal{db: db, cfg: cfg, log: logger, now: time.Now}, nil
}

// Close tears down the websocket connection.
func (s *Surreal) Close() {
	s.db.Close()
}

// rawResult is the envelope each statement of a raw Query response comes
// back in.
type rawResult struct {
	Status string          `json:"status"`
	Detail string          `json:"detail"`
	Result json.RawMessage `json:"result"`
}

// queryRows decodes the rows of the first statement in a raw Query
// response. The client hands back untyped payloads, so they are
// re-encoded through encoding/json to narrow them into typed records.
func queryRows[T any](raw interface{}, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query response: %w", err)
	}
	var results []rawResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	if first := results[0]; first.Status != "OK" {
		if first.Detail != "" {
			return nil, fmt.Errorf("query failed: %s", first.Detail)
		}
		return nil, fmt.Errorf("query failed with status %q", first.Status)
	}
	if len(results[0].Result) == 0 || string(results[0].Result) == "null" {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(results[0].Result, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode query rows: %w", err)
	}
	return rows, nil
}

// createdRecord decodes a raw Create response, which carries either the
// new record itself or a single-element list of it.
func createdRecord[T any](raw interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode create response: %w", err)
	}
	if len(data) > 0 && data[0] == '[' {
		var records []T
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode create response: %w", err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("create returned no record")
		}
		return &records[0], nil
	}
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	return &record, nil
}

func (s *Surreal) Document(ctx context.Context, id string) (*DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := queryRows[DocumentRecord](s.db.Query(
		fmt.Sprintf("SELECT * FROM %s WHERE id = $id", tableDocuments),
		map[string]any{"id": id},
	))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", id, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return &docs[0], nil
}

func (s *Surreal) CreateDocument(ctx context.Context, doc *DocumentRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	created, err := createdRecord[DocumentRecord](s.db.Create(tableDocuments, map[string]any{
		"owner_id":  doc.OwnerID,
		"title":     doc.Title,
		"file_name": doc.FileName,
		"file_path": doc.FilePath,
		"file_size": doc.FileSize,
		"status":    doc.Status,
	}))
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return created.ID, nil
}

func (s *Surreal) ListFields(ctx context.Context, documentID string) ([]field.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := queryRows[field.Row](s.db.Query(
		fmt.Sprintf("SELECT * FROM %s WHERE document_id = $doc ORDER BY created_at", tableFields),
		map[string]any{"doc": documentID},
	))
	if err != nil {
		return nil, fmt.Errorf("failed to list fields for %s: %w", documentID, err)
	}
	return rows, nil
}

// ReplaceFields saves the full field set for a document: every existing
// row is deleted, then the in-memory set is inserted. Ids are reassigned
// by the database on every save.
func (s *Surreal) ReplaceFields(ctx context.Context, documentID string, rows []field.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.Query(
		fmt.Sprintf("DELETE %s WHERE document_id = $doc", tableFields),
		map[string]any{"doc": documentID},
	)
	if err != nil {
		return fmt.Errorf("failed to delete fields for %s: %w", documentID, err)
	}

	for _, row := range rows {
		data := map[string]any{
			"document_id":  documentID,
			"page_number":  row.PageNumber,
			"x_position":   row.XPosition,
			"y_position":   row.YPosition,
			"signer_email": row.SignerEmail,
		}
		if row.Width != nil {
			data["width"] = *row.Width
		}
		if row.Height != nil {
			data["height"] = *row.Height
		}
		if row.FieldType != nil {
			data["field_type"] = *row.FieldType
		}
		if row.IsRequired != nil {
			data["is_required"] = *row.IsRequired
		}
		if row.SignatureData != nil {
			data["signature_data"] = *row.SignatureData
		}
		if _, err := s.db.Create(tableFields, data); err != nil {
			return fmt.Errorf("failed to insert field for %s: %w", documentID, err)
		}
	}

	s.log.Debug().Str("document", documentID).Int("fields", len(rows)).Msg("replaced field set")
	return nil
}

func (s *Surreal) CreateShare(ctx context.Context, share *ShareRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	created, err := createdRecord[ShareRecord](s.db.Create(tableShares, map[string]any{
		"document_id":     share.DocumentID,
		"recipient_email": share.RecipientEmail,
		"share_token":     share.ShareToken,
		"expires_at":      share.ExpiresAt.Format(time.RFC3339),
		"is_signed":       share.IsSigned,
	}))
	if err != nil {
		return "", fmt.Errorf("failed to create share: %w", err)
	}
	return created.ID, nil
}

func (s *Surreal) ListShares(ctx context.Context, documentID string) ([]ShareRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shares, err := queryRows[ShareRecord](s.db.Query(
		fmt.Sprintf("SELECT * FROM %s WHERE document_id = $doc ORDER BY created_at DESC", tableShares),
		map[string]any{"doc": documentID},
	))
	if err != nil {
		return nil, fmt.Errorf("failed to list shares for %s: %w", documentID, err)
	}
	return shares, nil
}

func (s *Surreal) DeleteShare(ctx context.Context, shareID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.Delete(shareID); err != nil {
		return fmt.Errorf("failed to delete share %s: %w", shareID, err)
	}
	return nil
}

func (s *Surreal) AppendAudit(ctx context.Context, entry AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.Create(tableAudits, map[string]any{
		"document_id": entry.DocumentID,
		"user_email":  entry.UserEmail,
		"action":      entry.Action,
		"details":     entry.Details,
	})
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// SignedURL mints a time-limited URL for a storage path against the
// configured blob store. The token is opaque to the core; expiry is
// enforced by the store and surfaces here only as a failed fetch.
func (s *Surreal) SignedURL(ctx context.Context, storagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.cfg.StorageBaseURL == "" {
		return "", fmt.Errorf("no storage base URL configured")
	}
	expires := s.now().Add(s.cfg.SignedURLTTL).Unix()
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", expires))
	q.Set("token", uuid.NewString())
	return fmt.Sprintf("%s/%s?%s", s.cfg.StorageBaseURL, storagePath, q.Encode()), nil
}
