package local

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

const BackendName = "local"

// PayloadURLPrefix is where the HTTP layer serves locally stored PDFs
const PayloadURLPrefix = "/api/demo/pdf/"

// NewBackend exposes s through the repository interfaces of the data access
// layer
func NewBackend(s *Store) *store.Backend {
	return &store.Backend{
		Name:       BackendName,
		Users:      users{s},
		Clients:    clients{s},
		Invoices:   invoices{s},
		ShareLinks: shareLinks{s: s},
		Payloads:   payloads{s},
	}
}

type users struct{ s *Store }

func (r users) Get(_ context.Context, uid string) (*model.User, error) {
	u, ok := r.s.GetUser(uid)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r users) Merge(_ context.Context, uid string, patch model.UserPatch, now time.Time) error {
	return r.s.MergeUser(uid, patch, now)
}

func (r users) AddStorage(_ context.Context, uid string, delta int64) error {
	return r.s.AddStorage(uid, delta)
}

type clients struct{ s *Store }

func (r clients) Create(_ context.Context, c *model.Client) error {
	return r.s.SaveClient(*c)
}

func (r clients) Get(_ context.Context, id string) (*model.Client, error) {
	c, ok := r.s.GetClient(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (r clients) ListByOwner(_ context.Context, uid string) ([]model.Client, error) {
	return r.s.ListClients(uid), nil
}

func (r clients) Delete(_ context.Context, id, uid string) error {
	return r.s.DeleteClient(id, uid)
}

type invoices struct{ s *Store }

func (r invoices) Create(_ context.Context, inv *model.Invoice) error {
	return r.s.SaveInvoice(*inv)
}

func (r invoices) Get(_ context.Context, id string) (*model.Invoice, error) {
	inv, ok := r.s.GetInvoice(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &inv, nil
}

func (r invoices) List(_ context.Context, q store.InvoiceQuery) ([]model.Invoice, error) {
	all := r.s.ListInvoices(q.UID)

	matched := all[:0]
	for _, inv := range all {
		if q.ClientID != "" && inv.ClientID != q.ClientID {
			continue
		}
		if q.Start != nil && inv.InvoiceDate.Before(*q.Start) {
			continue
		}
		if q.End != nil && inv.InvoiceDate.After(*q.End) {
			continue
		}
		matched = append(matched, inv)
	}

	return matched, nil
}

func (r invoices) Patch(_ context.Context, id string, patch model.InvoicePatch) error {
	return r.s.PatchInvoice(id, patch)
}

func (r invoices) Delete(_ context.Context, id, uid string) error {
	return r.s.DeleteInvoice(id, uid)
}

func (r invoices) DeleteByClient(_ context.Context, uid, clientID string) error {
	_, err := r.s.DeleteInvoicesByClient(uid, clientID)
	return err
}

// shareLinks tags every link with the demo session that minted it
type shareLinks struct {
	s         *Store
	partition string
}

func (r shareLinks) Put(_ context.Context, link *model.ShareLink) error {
	l := *link
	l.Partition = r.partition
	return r.s.PutShareLink(l)
}

func (r shareLinks) Get(_ context.Context, token string) (*model.ShareLink, error) {
	link, ok := r.s.GetShareLink(token)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &link, nil
}

func (r shareLinks) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.s.DeleteExpiredShareLinks(now)
}

// payloads keys the slot by invoice id, which is the base name of every
// payload path the data access layer builds
type payloads struct{ s *Store }

func invoiceIDFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), ".pdf")
}

func (r payloads) Put(_ context.Context, p string, body io.Reader, _ int64) error {
	return r.s.PutPayload(invoiceIDFromPath(p), body)
}

func (r payloads) URL(_ context.Context, p string) (string, error) {
	id := invoiceIDFromPath(p)
	if !r.s.HasPayload(id) {
		return "", store.ErrNotFound
	}

	return PayloadURLPrefix + id, nil
}

func (r payloads) Delete(_ context.Context, p string) error {
	err := r.s.DeletePayload(invoiceIDFromPath(p))
	if errors.Is(err, fs.ErrNotExist) {
		return store.ErrNotFound
	}
	return err
}
