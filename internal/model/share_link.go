package model

import "time"

type ShareLink struct {
	Token     string    `json:"token"`
	InvoiceID string    `json:"invoiceId"`
	// Partition is the demo session that minted the link, empty elsewhere
	Partition string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the link can no longer be resolved at now. A link
// is only valid while its expiry is strictly in the future.
func (s *ShareLink) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
