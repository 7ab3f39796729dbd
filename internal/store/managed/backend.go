package managed

import (
	"bitwise74/invoice-api/internal/store"

	"gorm.io/gorm"
)

const BackendName = "managed"

// NewBackend wires the SQL repositories together with the object store.
// Share links live in the database unless shareLinks is given.
func NewBackend(db *gorm.DB, payloads store.PayloadStore, shareLinks store.ShareLinkRepository) *store.Backend {
	if shareLinks == nil {
		shareLinks = NewSQLShareLinks(db)
	}

	return &store.Backend{
		Name:       BackendName,
		Users:      users{db},
		Clients:    clients{db},
		Invoices:   invoices{db},
		ShareLinks: shareLinks,
		Payloads:   payloads,
	}
}

func NewSQLShareLinks(db *gorm.DB) store.ShareLinkRepository {
	return shareLinks{db}
}
