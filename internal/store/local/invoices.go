package local

import (
	"bitwise74/invoice-api/internal/model"
	"sort"
)

// ListInvoices returns the invoices owned by uid ordered by invoice date,
// newest first
func (s *Store) ListInvoices(uid string) []model.Invoice {
	invoices := []model.Invoice{}

	for _, r := range read[invoiceRecord](s, keyInvoices) {
		if r.UID == uid {
			invoices = append(invoices, r.model())
		}
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].InvoiceDate.After(invoices[j].InvoiceDate)
	})

	return invoices
}

func (s *Store) GetInvoice(id string) (model.Invoice, bool) {
	for _, r := range read[invoiceRecord](s, keyInvoices) {
		if r.ID == id {
			return r.model(), true
		}
	}

	return model.Invoice{}, false
}

// SaveInvoice replaces the invoice with the same id or appends a new one
func (s *Store) SaveInvoice(inv model.Invoice) error {
	rec := invoiceFromModel(&inv)

	return update(s, keyInvoices, func(all []invoiceRecord) []invoiceRecord {
		for i := range all {
			if all[i].ID == rec.ID {
				all[i] = rec
				return all
			}
		}
		return append(all, rec)
	})
}

// PatchInvoice merges patch into the stored invoice. Patching an unknown id
// does nothing.
func (s *Store) PatchInvoice(id string, patch model.InvoicePatch) error {
	return update(s, keyInvoices, func(all []invoiceRecord) []invoiceRecord {
		for i := range all {
			if all[i].ID != id {
				continue
			}

			inv := all[i].model()
			patch.Apply(&inv)
			all[i] = invoiceFromModel(&inv)
			break
		}
		return all
	})
}

// DeleteInvoice removes the record when uid owns it. The payload slot is
// not touched.
func (s *Store) DeleteInvoice(id, uid string) error {
	return update(s, keyInvoices, func(all []invoiceRecord) []invoiceRecord {
		kept := all[:0]
		for _, r := range all {
			if r.ID == id && r.UID == uid {
				continue
			}
			kept = append(kept, r)
		}
		return kept
	})
}

// DeleteInvoicesByClient removes every invoice of (uid, clientID) and returns
// the removed ids
func (s *Store) DeleteInvoicesByClient(uid, clientID string) ([]string, error) {
	removed := []string{}

	err := update(s, keyInvoices, func(all []invoiceRecord) []invoiceRecord {
		kept := all[:0]
		for _, r := range all {
			if r.UID == uid && r.ClientID == clientID {
				removed = append(removed, r.ID)
				continue
			}
			kept = append(kept, r)
		}
		return kept
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}
