package local

import (
	"bitwise74/invoice-api/internal/model"
	"sort"
)

// ListClients returns the clients owned by uid, newest first
func (s *Store) ListClients(uid string) []model.Client {
	clients := []model.Client{}

	for _, r := range read[clientRecord](s, keyClients) {
		if r.UID == uid {
			clients = append(clients, r.model())
		}
	}

	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})

	return clients
}

func (s *Store) GetClient(id string) (model.Client, bool) {
	for _, r := range read[clientRecord](s, keyClients) {
		if r.ID == id {
			return r.model(), true
		}
	}

	return model.Client{}, false
}

// SaveClient replaces the client with the same id or appends a new one
func (s *Store) SaveClient(c model.Client) error {
	rec := clientFromModel(&c)

	return update(s, keyClients, func(all []clientRecord) []clientRecord {
		for i := range all {
			if all[i].ID == rec.ID {
				all[i] = rec
				return all
			}
		}
		return append(all, rec)
	})
}

// DeleteClient removes the client only when uid owns it. Its invoices are
// left alone, see DeleteInvoicesByClient.
func (s *Store) DeleteClient(id, uid string) error {
	return update(s, keyClients, func(all []clientRecord) []clientRecord {
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
