package managed

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

type invoices struct{ db *gorm.DB }

func (r invoices) Create(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Create(&invoiceRow{
		ID:          inv.ID,
		UserID:      inv.UID,
		ClientID:    inv.ClientID,
		InvoiceDate: util.ToMillis(inv.InvoiceDate),
		Amount:      inv.Amount,
		PDFPath:     inv.PDFPath,
		PDFSize:     inv.PDFSize,
		CreatedAt:   util.ToMillis(inv.CreatedAt),
	}).Error
}

func (r invoices) Get(ctx context.Context, id string) (*model.Invoice, error) {
	var row invoiceRow

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	inv := row.model()
	return &inv, nil
}

func (r invoices) List(ctx context.Context, q store.InvoiceQuery) ([]model.Invoice, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ?", q.UID)

	if q.ClientID != "" {
		tx = tx.Where("client_id = ?", q.ClientID)
	}
	if q.Start != nil {
		tx = tx.Where("invoice_date >= ?", util.ToMillis(*q.Start))
	}
	if q.End != nil {
		tx = tx.Where("invoice_date <= ?", util.ToMillis(*q.End))
	}

	var rows []invoiceRow
	if err := tx.Order("invoice_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.Invoice, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].model())
	}

	return out, nil
}

// Patch writes the columns present in patch. The id and creation time are
// never written.
func (r invoices) Patch(ctx context.Context, id string, patch model.InvoicePatch) error {
	cols := map[string]any{}

	if patch.ClientID != nil {
		cols["client_id"] = *patch.ClientID
	}
	if patch.InvoiceDate != nil {
		cols["invoice_date"] = util.ToMillis(*patch.InvoiceDate)
	}
	if patch.Amount != nil {
		cols["amount"] = *patch.Amount
	}
	if patch.PDFPath != nil {
		cols["pdf_path"] = *patch.PDFPath
	}
	if patch.PDFSize != nil {
		cols["pdf_size"] = *patch.PDFSize
	}

	if len(cols) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Model(&invoiceRow{}).
		Where("id = ?", id).
		Updates(cols).
		Error
}

func (r invoices) Delete(ctx context.Context, id, uid string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, id).
		Delete(&invoiceRow{}).
		Error
}

func (r invoices) DeleteByClient(ctx context.Context, uid, clientID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND client_id = ?", uid, clientID).
		Delete(&invoiceRow{}).
		Error
}
