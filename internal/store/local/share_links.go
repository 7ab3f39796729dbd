package local

import (
	"bitwise74/invoice-api/internal/model"
	"time"
)

func (s *Store) PutShareLink(link model.ShareLink) error {
	rec := shareLinkRecord{
		Token:     link.Token,
		InvoiceID: link.InvoiceID,
		Partition: link.Partition,
		ExpiresAt: stamp(link.ExpiresAt),
		CreatedAt: stamp(link.CreatedAt),
	}

	return update(s, keyShareLinks, func(all []shareLinkRecord) []shareLinkRecord {
		for i := range all {
			if all[i].Token == rec.Token {
				all[i] = rec
				return all
			}
		}
		return append(all, rec)
	})
}

// GetShareLink looks a token up without checking its expiry
func (s *Store) GetShareLink(token string) (model.ShareLink, bool) {
	for _, r := range read[shareLinkRecord](s, keyShareLinks) {
		if r.Token == token {
			return r.model(), true
		}
	}

	return model.ShareLink{}, false
}

// DeleteExpiredShareLinks drops every link that expired at or before now
func (s *Store) DeleteExpiredShareLinks(now time.Time) (int64, error) {
	var n int64

	err := update(s, keyShareLinks, func(all []shareLinkRecord) []shareLinkRecord {
		kept := all[:0]
		for _, r := range all {
			if !r.ExpiresAt.Time().After(now) {
				n++
				continue
			}
			kept = append(kept, r)
		}
		return kept
	})

	return n, err
}
