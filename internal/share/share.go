// Package share manages expiring share links granting recipients access
// to a document.
package share

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inksign/inksign/internal/store"
)

// Expiry bounds in days for a new share.
const (
	MinExpiryDays     = 1
	MaxExpiryDays     = 365
	DefaultExpiryDays = 7
)

// ErrInvalidEmail rejects malformed recipient addresses before any IO.
var ErrInvalidEmail = errors.New("invalid recipient email address")

// Service creates and manages share links through the persistence
// gateway.
type Service struct {
	gw      store.Gateway
	baseURL string
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a share service. baseURL is the public application
// root that share URLs are built against.
func NewService(gw store.Gateway, baseURL string, logger zerolog.Logger) *Service {
	return &Service{
		gw:      gw,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     logger,
		now:     time.Now,
	}
}

// SetClock overrides the time source, for expiry tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ValidateEmail checks a recipient address, rejecting empty and malformed
// input.
func ValidateEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", fmt.Errorf("%w: address is empty", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, trimmed)
	}
	return trimmed, nil
}

// Create validates the recipient and expiry, mints a random unique token
// and persists the share. Validation failures happen before any network
// call and leave no partial state.
func (s *Service) Create(ctx context.Context, documentID, recipientEmail string, expiresInDays int) (*store.ShareRecord, error) {
	email, err := ValidateEmail(recipientEmail)
	if err != nil {
		return nil, err
	}
	if expiresInDays == 0 {
		expiresInDays = DefaultExpiryDays
	}
	if expiresInDays < MinExpiryDays || expiresInDays > MaxExpiryDays {
		return nil, fmt.Errorf("expiry must be between %d and %d days, got %d",
			MinExpiryDays, MaxExpiryDays, expiresInDays)
	}

	share := &store.ShareRecord{
		DocumentID:     documentID,
		RecipientEmail: email,
		ShareToken:     uuid.NewString(),
		ExpiresAt:      s.now().AddDate(0, 0, expiresInDays),
	}
	id, err := s.gw.CreateShare(ctx, share)
	if err != nil {
		return nil, fmt.Errorf("failed to create share: %w", err)
	}
	share.ID = id

	s.log.Info().Str("document", documentID).Str("recipient", email).Msg("share created")
	return share, nil
}

// List returns the shares for a document, newest first per the gateway.
func (s *Service) List(ctx context.Context, documentID string) ([]store.ShareRecord, error) {
	return s.gw.ListShares(ctx, documentID)
}

// Delete removes a share link by id.
func (s *Service) Delete(ctx context.Context, shareID string) error {
	return s.gw.DeleteShare(ctx, shareID)
}

// IsExpired reports whether a share has passed its expiry, independent of
// whether it has been deleted. A zero expiry never expires.
func (s *Service) IsExpired(share store.ShareRecord) bool {
	if share.ExpiresAt.IsZero() {
		return false
	}
	return share.ExpiresAt.Before(s.now())
}

// URL builds the public link for a share token.
func (s *Service) URL(token string) string {
	return fmt.Sprintf("%s/shared/%s", s.baseURL, token)
}
