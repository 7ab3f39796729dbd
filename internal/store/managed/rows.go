// Package managed implements the data access repositories on top of a SQL
// database (gorm), an S3 compatible object store and optionally Redis.
package managed

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/pkg/util"

	"gorm.io/gorm"
)

// All timestamps are unix millisecond columns

type userRow struct {
	ID             string `gorm:"primaryKey"`
	Role           string `gorm:"not null"`
	Email          string
	DisplayName    string
	PhotoURL       string
	Plan           string
	StorageUsed    int64 `gorm:"not null;default:0"`
	StorageLimit   int64 `gorm:"not null;default:0"`
	TrialExpiresAt *int64
	GiftCodeUsed   bool  `gorm:"not null;default:false"`
	CreatedAt      int64 `gorm:"not null;autoCreateTime:false"`
}

func (userRow) TableName() string { return "users" }

func (r *userRow) model() *model.User {
	return &model.User{
		UID:            r.ID,
		Role:           r.Role,
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		PhotoURL:       r.PhotoURL,
		Plan:           r.Plan,
		StorageUsed:    r.StorageUsed,
		StorageLimit:   r.StorageLimit,
		TrialExpiresAt: util.FromMillisPtr(r.TrialExpiresAt),
		GiftCodeUsed:   r.GiftCodeUsed,
		CreatedAt:      util.FromMillis(r.CreatedAt),
	}
}

func userRowFrom(u *model.User) *userRow {
	return &userRow{
		ID:             u.UID,
		Role:           u.Role,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		PhotoURL:       u.PhotoURL,
		Plan:           u.Plan,
		StorageUsed:    u.StorageUsed,
		StorageLimit:   u.StorageLimit,
		TrialExpiresAt: util.ToMillisPtr(u.TrialExpiresAt),
		GiftCodeUsed:   u.GiftCodeUsed,
		CreatedAt:      util.ToMillis(u.CreatedAt),
	}
}

type clientRow struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	TaxID     string
	CreatedAt int64 `gorm:"not null;autoCreateTime:false"`
}

func (clientRow) TableName() string { return "clients" }

func (r *clientRow) model() model.Client {
	return model.Client{
		ID:        r.ID,
		UID:       r.UserID,
		Name:      r.Name,
		TaxID:     r.TaxID,
		CreatedAt: util.FromMillis(r.CreatedAt),
	}
}

type invoiceRow struct {
	ID          string  `gorm:"primaryKey"`
	UserID      string  `gorm:"index:idx_invoice_owner_date,priority:1;not null"`
	ClientID    string  `gorm:"index;not null"`
	InvoiceDate int64   `gorm:"index:idx_invoice_owner_date,priority:2;not null"`
	Amount      float64 `gorm:"not null"`
	PDFPath     string  `gorm:"column:pdf_path"`
	PDFSize     int64   `gorm:"column:pdf_size;not null;default:0"`
	CreatedAt   int64   `gorm:"not null;autoCreateTime:false"`
}

func (invoiceRow) TableName() string { return "invoices" }

func (r *invoiceRow) model() model.Invoice {
	return model.Invoice{
		ID:          r.ID,
		UID:         r.UserID,
		ClientID:    r.ClientID,
		InvoiceDate: util.FromMillis(r.InvoiceDate),
		Amount:      r.Amount,
		PDFPath:     r.PDFPath,
		PDFSize:     r.PDFSize,
		CreatedAt:   util.FromMillis(r.CreatedAt),
	}
}

type shareLinkRow struct {
	Token     string `gorm:"primaryKey"`
	InvoiceID string `gorm:"index;not null"`
	ExpiresAt int64  `gorm:"index;not null"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false"`
}

func (shareLinkRow) TableName() string { return "share_links" }

func (r *shareLinkRow) model() *model.ShareLink {
	return &model.ShareLink{
		Token:     r.Token,
		InvoiceID: r.InvoiceID,
		ExpiresAt: util.FromMillis(r.ExpiresAt),
		CreatedAt: util.FromMillis(r.CreatedAt),
	}
}

// Migrate creates or updates every table the managed backend uses
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &clientRow{}, &invoiceRow{}, &shareLinkRow{})
}
