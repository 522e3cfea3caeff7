package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inksign/inksign/internal/field"
)

// Memory is an in-memory Gateway used in tests and for offline editing
// sessions. Blobs can be seeded with PutBlob and fetched back through the
// memory:// URLs its SignedURL issues.
type Memory struct {
	mu        sync.Mutex
	documents map[string]DocumentRecord
	fields    map[string][]field.Row
	shares    map[string]ShareRecord
	audits    []AuditRecord
	blobs     map[string][]byte

	ttl time.Duration
	now func() time.Time
}

// NewMemory creates an empty in-memory gateway issuing signed URLs valid
// for ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Memory{
		documents: make(map[string]DocumentRecord),
		fields:    make(map[string][]field.Row),
		shares:    make(map[string]ShareRecord),
		blobs:     make(map[string][]byte),
		ttl:       ttl,
		now:       time.Now,
	}
}

// SetClock overrides the time source, for expiry tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// PutBlob seeds the blob served for a storage path.
func (m *Memory) PutBlob(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[path] = data
}

func (m *Memory) Document(_ context.Context, id string) (*DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return &doc, nil
}

func (m *Memory) CreateDocument(_ context.Context, doc *DocumentRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	stored := *doc
	stored.ID = id
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	m.documents[id] = stored
	return id, nil
}

func (m *Memory) ListFields(_ context.Context, documentID string) ([]field.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]field.Row, len(m.fields[documentID]))
	copy(rows, m.fields[documentID])
	return rows, nil
}

// ReplaceFields drops every row for the document and inserts the given
// set, assigning fresh ids. This mirrors the backing service's
// delete-all-then-insert-all save semantics exactly.
func (m *Memory) ReplaceFields(_ context.Context, documentID string, rows []field.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]field.Row, 0, len(rows))
	for _, row := range rows {
		row.ID = uuid.NewString()
		row.DocumentID = documentID
		row.CreatedAt = m.now().Format(time.RFC3339)
		stored = append(stored, row)
	}
	m.fields[documentID] = stored
	return nil
}

func (m *Memory) CreateShare(_ context.Context, share *ShareRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	stored := *share
	stored.ID = id
	stored.CreatedAt = m.now()
	m.shares[id] = stored
	return id, nil
}

func (m *Memory) ListShares(_ context.Context, documentID string) ([]ShareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var shares []ShareRecord
	for _, s := range m.shares {
		if s.DocumentID == documentID {
			shares = append(shares, s)
		}
	}
	return shares, nil
}

func (m *Memory) DeleteShare(_ context.Context, shareID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[shareID]; !ok {
		return fmt.Errorf("share %s: %w", shareID, ErrNotFound)
	}
	delete(m.shares, shareID)
	return nil
}

func (m *Memory) AppendAudit(_ context.Context, entry AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = m.now()
	m.audits = append(m.audits, entry)
	return nil
}

// Audits returns a copy of the audit log, for tests.
func (m *Memory) Audits() []AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditRecord, len(m.audits))
	copy(out, m.audits)
	return out
}

func (m *Memory) SignedURL(_ context.Context, storagePath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[storagePath]; !ok {
		return "", fmt.Errorf("blob %s: %w", storagePath, ErrNotFound)
	}
	expires := m.now().Add(m.ttl).Unix()
	return fmt.Sprintf("memory://%s?expires=%d", storagePath, expires), nil
}

// Fetch resolves memory:// URLs against the seeded blobs, honoring the
// embedded expiry like a real blob store would.
func (m *Memory) Fetch(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := strings.TrimPrefix(url, "memory://")
	var expires int64
	if i := strings.Index(path, "?expires="); i >= 0 {
		fmt.Sscanf(path[i+len("?expires="):], "%d", &expires)
		path = path[:i]
	}
	if expires > 0 && m.now().Unix() > expires {
		return nil, fmt.Errorf("fetch %s: %w", path, ErrLinkExpired)
	}
	data, ok := m.blobs[path]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", path, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
