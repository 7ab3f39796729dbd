package store

import (
	"bitwise74/invoice-api/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DataAccess is the single entry point for entity reads and writes. Mutations
// return typed errors, lists degrade to empty results when the backend fails.
type DataAccess struct {
	backend       *Backend
	mode          Mode
	now           func() time.Time
	newID         func() (string, error)
	deleteWorkers int
}

func (d *DataAccess) Mode() Mode {
	return d.mode
}

func (d *DataAccess) BackendName() string {
	return d.backend.Name
}

// ShareLinks exposes the share link collection of the active backend
func (d *DataAccess) ShareLinks() ShareLinkRepository {
	return d.backend.ShareLinks
}

// CreateUser merges patch into the profile of uid, creating it if needed.
// Role is always stamped to accountant whatever the caller sent.
func (d *DataAccess) CreateUser(ctx context.Context, uid string, patch model.UserPatch) error {
	if uid == "" {
		return fmt.Errorf("%w: user id is empty", ErrInvalidInput)
	}

	if err := d.backend.Users.Merge(ctx, uid, patch, d.now()); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}

	return nil
}

func (d *DataAccess) GetUser(ctx context.Context, uid string) (*model.User, error) {
	if uid == "" {
		return nil, ErrNotFound
	}

	return d.backend.Users.Get(ctx, uid)
}

func (d *DataAccess) CreateClient(ctx context.Context, nc model.NewClient) (string, error) {
	name := strings.TrimSpace(nc.Name)
	if nc.UID == "" || name == "" {
		return "", fmt.Errorf("%w: client needs an owner and a name", ErrInvalidInput)
	}

	id, err := d.newID()
	if err != nil {
		return "", fmt.Errorf("failed to generate client id: %w", err)
	}

	c := &model.Client{
		ID:        id,
		UID:       nc.UID,
		Name:      name,
		TaxID:     strings.TrimSpace(nc.TaxID),
		CreatedAt: d.now(),
	}

	if err := d.backend.Clients.Create(ctx, c); err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}

	return id, nil
}

func (d *DataAccess) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return d.backend.Clients.Get(ctx, id)
}

// OwnedClient returns the client only when uid owns it
func (d *DataAccess) OwnedClient(ctx context.Context, id, uid string) (*model.Client, error) {
	c, err := d.backend.Clients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.UID != uid {
		return nil, ErrForbidden
	}

	return c, nil
}

// GetClients lists the clients of uid, newest first
func (d *DataAccess) GetClients(ctx context.Context, uid string) []model.Client {
	clients, err := d.backend.Clients.ListByOwner(ctx, uid)
	if err != nil {
		zap.L().Error("Failed to list clients",
			zap.String("backend", d.backend.Name),
			zap.String("userID", uid),
			zap.Error(err),
		)
		return []model.Client{}
	}

	if clients == nil {
		return []model.Client{}
	}

	return clients
}

// DeleteClient removes every invoice of the client, their payloads included,
// and then the client itself. A failed run can simply be repeated.
func (d *DataAccess) DeleteClient(ctx context.Context, id, uid string) error {
	if _, err := d.OwnedClient(ctx, id, uid); err != nil {
		return err
	}

	invoices, err := d.backend.Invoices.List(ctx, InvoiceQuery{UID: uid, ClientID: id})
	if err != nil {
		return fmt.Errorf("failed to list client invoices: %w", err)
	}

	d.removePayloads(ctx, invoices)

	if err := d.backend.Invoices.DeleteByClient(ctx, uid, id); err != nil {
		return fmt.Errorf("failed to delete client invoices: %w", err)
	}

	var released int64
	for _, inv := range invoices {
		released += inv.PDFSize
	}
	d.releaseStorage(ctx, uid, released)

	if err := d.backend.Clients.Delete(ctx, id, uid); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return nil
}

// CheckQuota fails with ErrQuotaExceeded when storing size more bytes would
// go over the user's storage limit
func (d *DataAccess) CheckQuota(ctx context.Context, uid string, size int64) error {
	u, err := d.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAuthRequired
		}
		return err
	}

	limit := u.StorageLimit
	if limit <= 0 {
		limit = model.DefaultStorageLimit
	}

	if u.StorageUsed+size > limit {
		return ErrQuotaExceeded
	}

	return nil
}

func (d *DataAccess) releaseStorage(ctx context.Context, uid string, size int64) {
	if size <= 0 {
		return
	}

	if err := d.backend.Users.AddStorage(ctx, uid, -size); err != nil {
		zap.L().Error("Failed to decrement user's used storage",
			zap.String("userID", uid),
			zap.Int64("size", size),
			zap.Error(err),
		)
	}
}
