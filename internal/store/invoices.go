package store

import (
	"bitwise74/invoice-api/internal/metrics"
	"bitwise74/invoice-api/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// CreateInvoice stores a new invoice without a payload and returns its id.
// The owning client has to exist and belong to the same user.
func (d *DataAccess) CreateInvoice(ctx context.Context, ni model.NewInvoice) (string, error) {
	inv, err := d.createInvoice(ctx, ni)
	if err != nil {
		return "", err
	}

	return inv.ID, nil
}

func (d *DataAccess) createInvoice(ctx context.Context, ni model.NewInvoice) (*model.Invoice, error) {
	if ni.UID == "" || ni.ClientID == "" {
		return nil, fmt.Errorf("%w: invoice needs an owner and a client", ErrInvalidInput)
	}

	if err := validAmount(ni.Amount); err != nil {
		return nil, err
	}

	if ni.InvoiceDate.IsZero() {
		return nil, fmt.Errorf("%w: invoice date is missing", ErrInvalidInput)
	}

	if _, err := d.OwnedClient(ctx, ni.ClientID, ni.UID); err != nil {
		return nil, err
	}

	id, err := d.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice id: %w", err)
	}

	inv := &model.Invoice{
		ID:          id,
		UID:         ni.UID,
		ClientID:    ni.ClientID,
		InvoiceDate: ni.InvoiceDate,
		Amount:      ni.Amount,
		CreatedAt:   d.now(),
	}

	if err := d.backend.Invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return inv, nil
}

func (d *DataAccess) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	return d.backend.Invoices.Get(ctx, id)
}

// OwnedInvoice returns the invoice only when uid owns it
func (d *DataAccess) OwnedInvoice(ctx context.Context, id, uid string) (*model.Invoice, error) {
	inv, err := d.backend.Invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.UID != uid {
		return nil, ErrForbidden
	}

	return inv, nil
}

// GetInvoices lists the invoices of uid matching every filter that is set,
// newest invoice date first
func (d *DataAccess) GetInvoices(ctx context.Context, uid string, f model.InvoiceFilter) []model.Invoice {
	invoices, err := d.backend.Invoices.List(ctx, InvoiceQuery{
		UID:      uid,
		ClientID: f.ClientID,
		Start:    f.StartDate,
		End:      f.EndDate,
	})
	if err != nil {
		zap.L().Error("Failed to list invoices",
			zap.String("backend", d.backend.Name),
			zap.String("userID", uid),
			zap.Error(err),
		)
		return []model.Invoice{}
	}

	query := strings.ToLower(strings.TrimSpace(f.SearchQuery))
	if query == "" {
		if invoices == nil {
			return []model.Invoice{}
		}
		return invoices
	}

	clients := make(map[string]model.Client)
	for _, c := range d.GetClients(ctx, uid) {
		clients[c.ID] = c
	}

	matched := []model.Invoice{}
	for _, inv := range invoices {
		if strings.Contains(strings.ToLower(inv.ID), query) {
			matched = append(matched, inv)
			continue
		}

		c, ok := clients[inv.ClientID]
		if !ok {
			continue
		}

		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.TaxID), query) {
			matched = append(matched, inv)
		}
	}

	return matched
}

// UpdateInvoice applies a partial update. The id and creation time are
// immutable and dropped from the patch.
func (d *DataAccess) UpdateInvoice(ctx context.Context, id string, patch model.InvoicePatch) error {
	patch.ID = nil
	patch.CreatedAt = nil

	if patch.Amount != nil {
		if err := validAmount(*patch.Amount); err != nil {
			return err
		}
	}

	if err := d.backend.Invoices.Patch(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	return nil
}

// DeleteInvoice removes an invoice owned by uid. The stored PDF goes first on
// a best effort basis, a failure there never keeps the record alive.
func (d *DataAccess) DeleteInvoice(ctx context.Context, id, uid string) error {
	inv, err := d.OwnedInvoice(ctx, id, uid)
	if err != nil {
		return err
	}

	d.removePayload(ctx, inv)

	if err := d.backend.Invoices.Delete(ctx, id, uid); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	d.releaseStorage(ctx, uid, inv.PDFSize)
	return nil
}

// PayloadPath is where the PDF of inv lives when uploaded at the layer's
// current time
func (d *DataAccess) PayloadPath(inv *model.Invoice) string {
	now := d.now().UTC()
	return fmt.Sprintf("invoices/%s/%s/%04d/%02d/%s.pdf", inv.UID, inv.ClientID, now.Year(), int(now.Month()), inv.ID)
}

// UploadInvoicePDF is step two of the archive saga. It stores the payload and
// returns its path, the invoice record is left untouched.
func (d *DataAccess) UploadInvoicePDF(ctx context.Context, inv *model.Invoice, body io.Reader, size int64) (string, error) {
	p := d.PayloadPath(inv)

	if err := d.backend.Payloads.Put(ctx, p, body, size); err != nil {
		return "", fmt.Errorf("failed to upload invoice pdf: %w", err)
	}

	return p, nil
}

// ArchiveInvoice creates the invoice, uploads its PDF and patches the record
// with the payload path. When the upload or the patch fails the created
// invoice is returned together with an *UploadError, its PDFPath stays empty.
func (d *DataAccess) ArchiveInvoice(ctx context.Context, ni model.NewInvoice, body io.Reader, size int64) (*model.Invoice, error) {
	if err := d.CheckQuota(ctx, ni.UID, size); err != nil {
		return nil, err
	}

	inv, err := d.createInvoice(ctx, ni)
	if err != nil {
		return nil, err
	}

	if err := d.attachPDF(ctx, inv, body, size); err != nil {
		return inv, err
	}

	return inv, nil
}

// ResumeInvoiceUpload attaches a PDF to an invoice of uid whose first upload
// never completed. Invoices that already have one are refused.
func (d *DataAccess) ResumeInvoiceUpload(ctx context.Context, uid, id string, body io.Reader, size int64) (*model.Invoice, error) {
	inv, err := d.OwnedInvoice(ctx, id, uid)
	if err != nil {
		return nil, err
	}

	if !inv.UploadPending() {
		return nil, fmt.Errorf("%w: this invoice already has a pdf", ErrInvalidInput)
	}

	if err := d.CheckQuota(ctx, uid, size); err != nil {
		return nil, err
	}

	if err := d.attachPDF(ctx, inv, body, size); err != nil {
		return inv, err
	}

	return inv, nil
}

// attachPDF runs steps two and three of the archive saga on inv
func (d *DataAccess) attachPDF(ctx context.Context, inv *model.Invoice, body io.Reader, size int64) error {
	p, err := d.UploadInvoicePDF(ctx, inv, body, size)
	if err != nil {
		return d.incomplete(inv, err)
	}

	err = d.backend.Invoices.Patch(ctx, inv.ID, model.InvoicePatch{
		PDFPath: &p,
		PDFSize: &size,
	})
	if err != nil {
		if derr := d.backend.Payloads.Delete(ctx, p); derr != nil && !errors.Is(derr, ErrNotFound) {
			zap.L().Warn("Failed to remove orphaned invoice pdf", zap.String("path", p), zap.Error(derr))
		}
		return d.incomplete(inv, err)
	}

	inv.PDFPath = p
	inv.PDFSize = size

	if err := d.backend.Users.AddStorage(ctx, inv.UID, size); err != nil {
		zap.L().Error("Failed to increment user's used storage", zap.String("userID", inv.UID), zap.Error(err))
	}

	return nil
}

func (d *DataAccess) incomplete(inv *model.Invoice, err error) error {
	metrics.UploadsIncomplete.WithLabelValues(d.backend.Name).Inc()
	zap.L().Warn("Invoice left without a pdf",
		zap.String("backend", d.backend.Name),
		zap.String("invoiceID", inv.ID),
		zap.Error(err),
	)

	return &UploadError{InvoiceID: inv.ID, Err: err}
}

// GetInvoicePDFURL returns a readable URL for a payload owned by uid. An empty
// uid or a refusal from the object store ask the caller to sign in again.
func (d *DataAccess) GetInvoicePDFURL(ctx context.Context, uid, pdfPath string) (string, error) {
	if uid == "" {
		return "", ErrAuthRequired
	}

	if pdfPath == "" {
		return "", ErrUploadIncomplete
	}

	if !strings.HasPrefix(path.Clean(pdfPath), "invoices/"+uid+"/") {
		return "", ErrForbidden
	}

	return d.payloadURL(ctx, pdfPath)
}

// SharedPDFURL returns the payload URL of inv without an ownership check. It
// is meant for share links that were already resolved.
func (d *DataAccess) SharedPDFURL(ctx context.Context, inv *model.Invoice) (string, error) {
	if inv.UploadPending() {
		return "", ErrUploadIncomplete
	}

	return d.payloadURL(ctx, inv.PDFPath)
}

func (d *DataAccess) payloadURL(ctx context.Context, p string) (string, error) {
	url, err := d.backend.Payloads.URL(ctx, p)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return "", ErrAuthRequired
		}
		return "", err
	}

	return url, nil
}

func (d *DataAccess) removePayload(ctx context.Context, inv *model.Invoice) {
	if inv.PDFPath == "" {
		return
	}

	err := d.backend.Payloads.Delete(ctx, inv.PDFPath)
	if err == nil || errors.Is(err, ErrNotFound) {
		return
	}

	metrics.PayloadDeleteFailures.WithLabelValues(d.backend.Name).Inc()
	zap.L().Warn("Failed to delete invoice pdf",
		zap.String("backend", d.backend.Name),
		zap.String("invoiceID", inv.ID),
		zap.String("path", inv.PDFPath),
		zap.Error(err),
	)
}

func (d *DataAccess) removePayloads(ctx context.Context, invoices []model.Invoice) {
	p := pool.New().WithMaxGoroutines(d.deleteWorkers)

	for i := range invoices {
		inv := &invoices[i]
		p.Go(func() { d.removePayload(ctx, inv) })
	}

	p.Wait()
}

func validAmount(a float64) error {
	if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidInput)
	}
	return nil
}
