package store_test

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/internal/store/local"
	"bitwise74/invoice-api/internal/store/managed"
	"bitwise74/invoice-api/internal/store/storetest"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(time.Second)
	return c.t
}

func sequentialIDs() func() (string, error) {
	var (
		mu sync.Mutex
		n  int
	)

	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()

		n++
		return fmt.Sprintf("id%03d", n), nil
	}
}

func newLocal(t *testing.T) *store.Backend {
	t.Helper()
	return local.NewBackend(local.NewMemory())
}

func newManaged(t *testing.T, payloads store.PayloadStore) *store.Backend {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, managed.Migrate(db))

	return managed.NewBackend(db, payloads, nil)
}

func access(t *testing.T, b *store.Backend) *store.DataAccess {
	t.Helper()

	f, err := store.NewFactory(b, b,
		store.WithClock((&clock{t: base}).Now),
		store.WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)

	return f.For(store.ModeManaged)
}

// forEachBackend runs fn once against the local emulation store and once
// against SQL + in-memory object storage
func forEachBackend(t *testing.T, fn func(t *testing.T, d *store.DataAccess)) {
	t.Run("local", func(t *testing.T) {
		fn(t, access(t, newLocal(t)))
	})
	t.Run("managed", func(t *testing.T) {
		fn(t, access(t, newManaged(t, storetest.NewPayloads())))
	})
}

func pdf() *bytes.Reader {
	return bytes.NewReader([]byte("%PDF-1.4 test"))
}

func seedUser(t *testing.T, d *store.DataAccess, uid string) {
	t.Helper()

	require.NoError(t, d.CreateUser(context.Background(), uid, model.UserPatch{
		StorageLimit: model.Ptr(model.DefaultStorageLimit),
		StorageUsed:  model.Ptr(int64(0)),
	}))
}

func ids(invoices []model.Invoice) []string {
	out := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, inv.ID)
	}
	return out
}

func TestCreateClientRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		id, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme Ltd", TaxID: "1111111111"})
		require.NoError(t, err)

		clients := d.GetClients(ctx, "u1")
		var found []model.Client
		for _, c := range clients {
			if c.ID == id {
				found = append(found, c)
			}
		}

		require.Len(t, found, 1)
		assert.Equal(t, "Acme Ltd", found[0].Name)
		assert.Equal(t, "1111111111", found[0].TaxID)
		assert.Equal(t, "u1", found[0].UID)
		assert.False(t, found[0].CreatedAt.IsZero())

		_, err = d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "  "})
		assert.ErrorIs(t, err, store.ErrInvalidInput)
	})
}

func TestGetClientsNewestFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		first, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "First"})
		require.NoError(t, err)
		second, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Second"})
		require.NoError(t, err)

		clients := d.GetClients(ctx, "u1")
		require.Len(t, clients, 2)
		assert.Equal(t, second, clients[0].ID)
		assert.Equal(t, first, clients[1].ID)

		assert.Empty(t, d.GetClients(ctx, "u2"))
	})
}

func TestCreateInvoiceChecksClient(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
		require.NoError(t, err)

		_, err = d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: "missing", InvoiceDate: base, Amount: 1})
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = d.CreateInvoice(ctx, model.NewInvoice{UID: "u2", ClientID: cid, InvoiceDate: base, Amount: 1})
		assert.ErrorIs(t, err, store.ErrForbidden)

		_, err = d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: -1})
		assert.ErrorIs(t, err, store.ErrInvalidInput)

		id, err := d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: 0})
		require.NoError(t, err)

		inv, err := d.GetInvoice(ctx, id)
		require.NoError(t, err)
		assert.True(t, inv.UploadPending())
		assert.True(t, base.Equal(inv.InvoiceDate))
	})
}

func TestDeletedInvoiceLeavesList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()
		seedUser(t, d, "u1")

		cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
		require.NoError(t, err)

		inv, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: 10}, pdf(), int64(pdf().Len()))
		require.NoError(t, err)

		require.NoError(t, d.DeleteInvoice(ctx, inv.ID, "u1"))
		assert.NotContains(t, ids(d.GetInvoices(ctx, "u1", model.InvoiceFilter{})), inv.ID)

		_, err = d.GetInvoice(ctx, inv.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		u, err := d.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, u.StorageUsed)
	})
}

func TestDeleteClientCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()
		seedUser(t, d, "u1")

		c1, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "One"})
		require.NoError(t, err)
		c2, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Two"})
		require.NoError(t, err)

		i1, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: c1, InvoiceDate: base, Amount: 1}, pdf(), int64(pdf().Len()))
		require.NoError(t, err)
		i2, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: c1, InvoiceDate: base, Amount: 2}, pdf(), int64(pdf().Len()))
		require.NoError(t, err)
		i3, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: c2, InvoiceDate: base, Amount: 3}, pdf(), int64(pdf().Len()))
		require.NoError(t, err)

		assert.ErrorIs(t, d.DeleteClient(ctx, c1, "u2"), store.ErrForbidden)
		require.NoError(t, d.DeleteClient(ctx, c1, "u1"))

		left := ids(d.GetInvoices(ctx, "u1", model.InvoiceFilter{}))
		assert.Equal(t, []string{i3.ID}, left)
		assert.NotContains(t, left, i1.ID)
		assert.NotContains(t, left, i2.ID)

		_, err = d.GetClient(ctx, c1)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = d.GetInvoicePDFURL(ctx, "u1", i1.PDFPath)
		assert.ErrorIs(t, err, store.ErrNotFound)

		u, err := d.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, i3.PDFSize, u.StorageUsed)
	})
}

func TestSearchQuery(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		acme, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme Ltd", TaxID: "1111111111"})
		require.NoError(t, err)
		beta, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Beta AS", TaxID: "2222222222"})
		require.NoError(t, err)

		ia, err := d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: acme, InvoiceDate: base, Amount: 1})
		require.NoError(t, err)
		ib, err := d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: beta, InvoiceDate: base, Amount: 2})
		require.NoError(t, err)

		assert.Equal(t, []string{ia}, ids(d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: "acme"})))
		assert.Equal(t, []string{ib}, ids(d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: "2222222222"})))
		assert.Equal(t, []string{ib}, ids(d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: strings.ToUpper(ib)})))
		assert.Empty(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: "gamma"}))

		// filters compose
		assert.Empty(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: "acme", ClientID: beta}))
		assert.Len(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: "   "}), 2)
	})
}

func TestDateRangeFilter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
		require.NoError(t, err)

		want := ""
		for _, day := range []time.Time{
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		} {
			id, err := d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: day, Amount: 1})
			require.NoError(t, err)
			if day.Month() == time.February {
				want = id
			}
		}

		start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)

		got := d.GetInvoices(ctx, "u1", model.InvoiceFilter{StartDate: &start, EndDate: &end})
		assert.Equal(t, []string{want}, ids(got))

		assert.Len(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{StartDate: &start}), 2)
		assert.Len(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{EndDate: &end}), 2)
	})
}

func TestDeleteInvoiceOwnership(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		cid, err := d.CreateClient(ctx, model.NewClient{UID: "a", Name: "Acme"})
		require.NoError(t, err)
		id, err := d.CreateInvoice(ctx, model.NewInvoice{UID: "a", ClientID: cid, InvoiceDate: base, Amount: 1})
		require.NoError(t, err)

		assert.ErrorIs(t, d.DeleteInvoice(ctx, id, "b"), store.ErrForbidden)
		assert.Contains(t, ids(d.GetInvoices(ctx, "a", model.InvoiceFilter{})), id)

		assert.ErrorIs(t, d.DeleteInvoice(ctx, "missing", "a"), store.ErrNotFound)
	})
}

func TestProfileMergeIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		require.NoError(t, d.CreateUser(ctx, "u1", model.UserPatch{DisplayName: model.Ptr("X")}))
		require.NoError(t, d.CreateUser(ctx, "u1", model.UserPatch{PhotoURL: model.Ptr("Y")}))

		u, err := d.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "X", u.DisplayName)
		assert.Equal(t, "Y", u.PhotoURL)
		assert.Equal(t, model.RoleAccountant, u.Role)

		_, err = d.GetUser(ctx, "u2")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUpdateInvoiceStripsImmutableFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
		require.NoError(t, err)
		id, err := d.CreateInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: 1})
		require.NoError(t, err)

		before, err := d.GetInvoice(ctx, id)
		require.NoError(t, err)

		require.NoError(t, d.UpdateInvoice(ctx, id, model.InvoicePatch{
			ID:        model.Ptr("hijacked"),
			CreatedAt: model.Ptr(base.AddDate(-10, 0, 0)),
			Amount:    model.Ptr(250.75),
		}))

		after, err := d.GetInvoice(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 250.75, after.Amount)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

		_, err = d.GetInvoice(ctx, "hijacked")
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.ErrorIs(t, d.UpdateInvoice(ctx, id, model.InvoicePatch{Amount: model.Ptr(-5.0)}), store.ErrInvalidInput)
	})
}

func TestArchiveInvoice(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()
		seedUser(t, d, "u1")

		cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
		require.NoError(t, err)

		body := pdf()
		size := int64(body.Len())

		inv, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: 10}, body, size)
		require.NoError(t, err)
		assert.False(t, inv.UploadPending())
		assert.True(t, strings.HasPrefix(inv.PDFPath, "invoices/u1/"+cid+"/2024/01/"))
		assert.True(t, strings.HasSuffix(inv.PDFPath, inv.ID+".pdf"))

		stored, err := d.GetInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv.PDFPath, stored.PDFPath)
		assert.Equal(t, size, stored.PDFSize)

		u, err := d.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, size, u.StorageUsed)

		url, err := d.GetInvoicePDFURL(ctx, "u1", inv.PDFPath)
		require.NoError(t, err)
		assert.NotEmpty(t, url)

		_, err = d.GetInvoicePDFURL(ctx, "", inv.PDFPath)
		assert.ErrorIs(t, err, store.ErrAuthRequired)

		_, err = d.GetInvoicePDFURL(ctx, "u2", inv.PDFPath)
		assert.ErrorIs(t, err, store.ErrForbidden)

		_, err = d.GetInvoicePDFURL(ctx, "u1", "invoices/u1/"+cid+"/../../u2/x.pdf")
		assert.ErrorIs(t, err, store.ErrForbidden)
	})
}

func TestArchiveInvoiceQuota(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *store.DataAccess) {
		ctx := context.Background()

		require.NoError(t, d.CreateUser(ctx, "u1", model.UserPatch{StorageLimit: model.Ptr(int64(5))}))
		cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
		require.NoError(t, err)

		_, err = d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base}, pdf(), int64(pdf().Len()))
		assert.ErrorIs(t, err, store.ErrQuotaExceeded)
		assert.Empty(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{}))
	})
}

func TestArchiveInvoiceUploadFailureLeavesPendingRecord(t *testing.T) {
	ctx := context.Background()

	payloads := storetest.NewPayloads()
	payloads.FailPut = errors.New("bucket on fire")
	d := access(t, newManaged(t, payloads))
	seedUser(t, d, "u1")

	cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
	require.NoError(t, err)

	inv, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: 1}, pdf(), 13)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUploadIncomplete)

	var uploadErr *store.UploadError
	require.ErrorAs(t, err, &uploadErr)
	require.NotNil(t, inv)
	assert.Equal(t, inv.ID, uploadErr.InvoiceID)

	stored, err := d.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.UploadPending())

	_, err = d.GetInvoicePDFURL(ctx, "u1", stored.PDFPath)
	assert.ErrorIs(t, err, store.ErrUploadIncomplete)

	_, err = d.SharedPDFURL(ctx, stored)
	assert.ErrorIs(t, err, store.ErrUploadIncomplete)

	u, err := d.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u.StorageUsed)

	// a pending invoice can still be deleted
	require.NoError(t, d.DeleteInvoice(ctx, inv.ID, "u1"))
}

func TestDeleteInvoiceSurvivesPayloadFailure(t *testing.T) {
	ctx := context.Background()

	payloads := storetest.NewPayloads()
	d := access(t, newManaged(t, payloads))
	seedUser(t, d, "u1")

	cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
	require.NoError(t, err)

	gone, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base}, pdf(), 13)
	require.NoError(t, err)
	broken, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base}, pdf(), 13)
	require.NoError(t, err)

	// payload already absent counts as success
	require.NoError(t, payloads.Delete(ctx, gone.PDFPath))
	require.NoError(t, d.DeleteInvoice(ctx, gone.ID, "u1"))

	payloads.FailDelete = errors.New("timeout")
	require.NoError(t, d.DeleteInvoice(ctx, broken.ID, "u1"))

	assert.Empty(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{}))
	assert.True(t, payloads.Has(broken.PDFPath))
}

func TestPDFURLAccessDenied(t *testing.T) {
	ctx := context.Background()

	payloads := storetest.NewPayloads()
	d := access(t, newManaged(t, payloads))
	seedUser(t, d, "u1")

	cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
	require.NoError(t, err)
	inv, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base}, pdf(), 13)
	require.NoError(t, err)

	payloads.FailURL = store.ErrAccessDenied
	_, err = d.GetInvoicePDFURL(ctx, "u1", inv.PDFPath)
	assert.ErrorIs(t, err, store.ErrAuthRequired)

	payloads.FailURL = nil
	_, err = d.GetInvoicePDFURL(ctx, "u1", "invoices/u1/"+cid+"/2024/01/missing.pdf")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLocalPayloadURL(t *testing.T) {
	ctx := context.Background()
	d := access(t, newLocal(t))
	seedUser(t, d, "u1")

	cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
	require.NoError(t, err)
	inv, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base}, pdf(), 13)
	require.NoError(t, err)

	url, err := d.SharedPDFURL(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, local.PayloadURLPrefix+inv.ID, url)
}

type failingInvoices struct {
	store.InvoiceRepository
}

func (failingInvoices) List(context.Context, store.InvoiceQuery) ([]model.Invoice, error) {
	return nil, errors.New("connection reset")
}

type failingClients struct {
	store.ClientRepository
}

func (failingClients) ListByOwner(context.Context, string) ([]model.Client, error) {
	return nil, errors.New("connection reset")
}

func TestListsDegradeToEmpty(t *testing.T) {
	b := newLocal(t)
	b.Invoices = failingInvoices{b.Invoices}
	b.Clients = failingClients{b.Clients}

	d := access(t, b)
	ctx := context.Background()

	invoices := d.GetInvoices(ctx, "u1", model.InvoiceFilter{SearchQuery: "x"})
	assert.NotNil(t, invoices)
	assert.Empty(t, invoices)

	clients := d.GetClients(ctx, "u1")
	assert.NotNil(t, clients)
	assert.Empty(t, clients)
}

func TestFactoryModes(t *testing.T) {
	localBackend := newLocal(t)
	managedBackend := newManaged(t, storetest.NewPayloads())

	_, err := store.NewFactory(managedBackend, nil)
	assert.Error(t, err)

	f, err := store.NewFactory(managedBackend, localBackend)
	require.NoError(t, err)
	assert.True(t, f.ManagedConfigured())
	assert.Equal(t, managed.BackendName, f.For(store.ModeManaged).BackendName())
	assert.Equal(t, local.BackendName, f.For(store.ModeDemo).BackendName())

	fallback, err := store.NewFactory(nil, localBackend)
	require.NoError(t, err)
	assert.False(t, fallback.ManagedConfigured())

	d := fallback.For(store.ModeManaged)
	assert.Equal(t, local.BackendName, d.BackendName())
	assert.Equal(t, store.ModeDemo, d.Mode())
}

func TestResumeInvoiceUpload(t *testing.T) {
	ctx := context.Background()

	payloads := storetest.NewPayloads()
	payloads.FailPut = errors.New("bucket on fire")
	d := access(t, newManaged(t, payloads))
	seedUser(t, d, "u1")
	seedUser(t, d, "u2")

	cid, err := d.CreateClient(ctx, model.NewClient{UID: "u1", Name: "Acme"})
	require.NoError(t, err)

	pending, err := d.ArchiveInvoice(ctx, model.NewInvoice{UID: "u1", ClientID: cid, InvoiceDate: base, Amount: 1}, pdf(), 13)
	require.ErrorIs(t, err, store.ErrUploadIncomplete)

	// still failing, the record stays pending
	_, err = d.ResumeInvoiceUpload(ctx, "u1", pending.ID, pdf(), 13)
	assert.ErrorIs(t, err, store.ErrUploadIncomplete)

	payloads.FailPut = nil

	_, err = d.ResumeInvoiceUpload(ctx, "u2", pending.ID, pdf(), 13)
	assert.ErrorIs(t, err, store.ErrForbidden)

	_, err = d.ResumeInvoiceUpload(ctx, "u1", "missing", pdf(), 13)
	assert.ErrorIs(t, err, store.ErrNotFound)

	inv, err := d.ResumeInvoiceUpload(ctx, "u1", pending.ID, pdf(), 13)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, inv.ID)
	assert.False(t, inv.UploadPending())
	assert.True(t, payloads.Has(inv.PDFPath))

	stored, err := d.GetInvoice(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.PDFPath, stored.PDFPath)
	assert.EqualValues(t, 13, stored.PDFSize)

	u, err := d.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 13, u.StorageUsed)

	_, err = d.ResumeInvoiceUpload(ctx, "u1", pending.ID, pdf(), 13)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	// only one record came out of it
	assert.Len(t, d.GetInvoices(ctx, "u1", model.InvoiceFilter{}), 1)
}

func TestFactoryDemoPartitions(t *testing.T) {
	ctx := context.Background()

	root := local.NewMemory()
	parts := local.NewPartitions(root, time.Hour)
	t.Cleanup(func() { parts.Close() })

	f, err := store.NewFactory(nil, local.NewBackend(root))
	require.NoError(t, err)

	// without partitions every demo session shares the local backend
	require.NoError(t, f.ForDemo("a").CreateUser(ctx, "demo", model.UserPatch{}))
	_, err = f.ForDemo("b").GetUser(ctx, "demo")
	require.NoError(t, err)

	f.SetPartitions(parts)

	require.NoError(t, f.ForDemo("a").CreateUser(ctx, "demo", model.UserPatch{DisplayName: model.Ptr("A")}))
	_, err = f.ForDemo("b").GetUser(ctx, "demo")
	assert.ErrorIs(t, err, store.ErrNotFound)

	u, err := f.ForDemo("a").GetUser(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "A", u.DisplayName)
	assert.Equal(t, store.ModeDemo, f.ForDemo("a").Mode())
}
