// Package sharelink mints and resolves the tokens that give read-only access
// to a single invoice without signing in
package sharelink

import (
	"bitwise74/invoice-api/internal/metrics"
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	// TTL is the lifetime of every link, there is no way to revoke one earlier
	TTL = 24 * time.Hour

	// 25 symbols out of 36 is a little over 129 bits
	tokenCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenLength  = 25

	maxAttempts = 3
)

var ErrTokenSpaceExhausted = errors.New("failed to generate a unique share token")

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newToken = gen }
}

type Service struct {
	repo     store.ShareLinkRepository
	now      func() time.Time
	newToken func() (string, error)
}

// New returns a service storing links in repo, usually the share link
// collection of the active data access backend
func New(repo store.ShareLinkRepository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		now:      time.Now,
		newToken: func() (string, error) { return gonanoid.Generate(tokenCharset, tokenLength) },
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Create mints a token for invoiceID that expires exactly TTL from now
func (s *Service) Create(ctx context.Context, invoiceID string) (*model.ShareLink, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoice id is empty", store.ErrInvalidInput)
	}

	token, err := s.uniqueToken(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	link := &model.ShareLink{
		Token:     token,
		InvoiceID: invoiceID,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}

	if err := s.repo.Put(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to save share link: %w", err)
	}

	metrics.ShareLinksCreated.Inc()
	return link, nil
}

func (s *Service) uniqueToken(ctx context.Context) (string, error) {
	for range maxAttempts {
		token, err := s.newToken()
		if err != nil {
			return "", fmt.Errorf("failed to generate share token: %w", err)
		}

		_, err = s.repo.Get(ctx, token)
		if errors.Is(err, store.ErrNotFound) {
			return token, nil
		}
		if err != nil {
			return "", err
		}

		zap.L().Warn("Share token collision, retrying")
	}

	return "", ErrTokenSpaceExhausted
}

// Resolve returns the link behind token while it is still valid. Unknown and
// expired tokens both give store.ErrNotFound.
func (s *Service) Resolve(ctx context.Context, token string) (*model.ShareLink, error) {
	if token == "" {
		metrics.ShareLinkResolutions.WithLabelValues("not_found").Inc()
		return nil, store.ErrNotFound
	}

	link, err := s.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.ShareLinkResolutions.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	if link.Expired(s.now()) {
		metrics.ShareLinkResolutions.WithLabelValues("not_found").Inc()
		return nil, store.ErrNotFound
	}

	metrics.ShareLinkResolutions.WithLabelValues("ok").Inc()
	return link, nil
}

// Cleanup drops links that can no longer be resolved
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	metrics.ShareLinksCollected.Add(float64(n))
	return n, nil
}
