package model

import "time"

type Invoice struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	ClientID    string    `json:"clientId"`
	InvoiceDate time.Time `json:"invoiceDate"`
	Amount      float64   `json:"amount"`
	// Empty until the PDF upload finished and the record was patched
	PDFPath   string    `json:"pdfPath"`
	PDFSize   int64     `json:"pdfSize"`
	CreatedAt time.Time `json:"createdAt"`
}

// UploadPending reports whether the record was created but its payload was
// never attached.
func (i *Invoice) UploadPending() bool {
	return i.PDFPath == ""
}

type NewInvoice struct {
	UID         string
	ClientID    string
	InvoiceDate time.Time
	Amount      float64
}

// InvoicePatch is a shallow partial update. ID and CreatedAt exist so that
// decoded request bodies can carry them, the data access layer strips both.
type InvoicePatch struct {
	ID          *string    `json:"id,omitempty"`
	ClientID    *string    `json:"clientId,omitempty"`
	InvoiceDate *time.Time `json:"invoiceDate,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	PDFPath     *string    `json:"pdfPath,omitempty"`
	PDFSize     *int64     `json:"pdfSize,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Apply merges p into inv, including ID and CreatedAt if still set
func (p InvoicePatch) Apply(inv *Invoice) {
	if p.ID != nil {
		inv.ID = *p.ID
	}
	if p.ClientID != nil {
		inv.ClientID = *p.ClientID
	}
	if p.InvoiceDate != nil {
		inv.InvoiceDate = *p.InvoiceDate
	}
	if p.Amount != nil {
		inv.Amount = *p.Amount
	}
	if p.PDFPath != nil {
		inv.PDFPath = *p.PDFPath
	}
	if p.PDFSize != nil {
		inv.PDFSize = *p.PDFSize
	}
	if p.CreatedAt != nil {
		inv.CreatedAt = *p.CreatedAt
	}
}

// InvoiceFilter narrows GetInvoices. Zero values mean no constraint.
type InvoiceFilter struct {
	ClientID    string
	StartDate   *time.Time
	EndDate     *time.Time
	SearchQuery string
}
