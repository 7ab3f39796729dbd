// Package store is the data access layer. Every handler reads and writes
// entities through a DataAccess, which hides whether the managed backend or
// the local emulation store is in effect.
package store

import (
	"bitwise74/invoice-api/internal/model"
	"context"
	"io"
	"time"
)

type UserRepository interface {
	// Get returns ErrNotFound when the profile doesn't exist
	Get(ctx context.Context, uid string) (*model.User, error)
	// Merge creates the profile when it's missing, with CreatedAt set to now,
	// or applies only the non-nil fields of patch to the existing one.
	Merge(ctx context.Context, uid string, patch model.UserPatch, now time.Time) error
	// AddStorage shifts storageUsed by delta, never below zero
	AddStorage(ctx context.Context, uid string, delta int64) error
}

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	Get(ctx context.Context, id string) (*model.Client, error)
	// ListByOwner returns the clients of uid, newest first
	ListByOwner(ctx context.Context, uid string) ([]model.Client, error)
	// Delete removes the client only if uid owns it
	Delete(ctx context.Context, id, uid string) error
}

// InvoiceQuery is what a backend can filter on natively. Free text search
// needs client data and happens in the data access layer.
type InvoiceQuery struct {
	UID      string
	ClientID string
	Start    *time.Time
	End      *time.Time
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	Get(ctx context.Context, id string) (*model.Invoice, error)
	// List returns matching invoices ordered by invoice date, newest first.
	// Date bounds are inclusive.
	List(ctx context.Context, q InvoiceQuery) ([]model.Invoice, error)
	// Patch does a shallow merge. Unknown ids are ignored.
	Patch(ctx context.Context, id string, patch model.InvoicePatch) error
	Delete(ctx context.Context, id, uid string) error
	DeleteByClient(ctx context.Context, uid, clientID string) error
}

type ShareLinkRepository interface {
	Put(ctx context.Context, link *model.ShareLink) error
	// Get returns the stored link regardless of its expiry
	Get(ctx context.Context, token string) (*model.ShareLink, error)
	// DeleteExpired drops links that expired at or before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PayloadStore keeps invoice PDFs. URL and Delete return ErrNotFound for a
// missing object and ErrAccessDenied when the store refuses the request.
type PayloadStore interface {
	Put(ctx context.Context, path string, body io.Reader, size int64) error
	URL(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

// Backend is one complete set of repositories
type Backend struct {
	Name       string
	Users      UserRepository
	Clients    ClientRepository
	Invoices   InvoiceRepository
	ShareLinks ShareLinkRepository
	Payloads   PayloadStore
}
