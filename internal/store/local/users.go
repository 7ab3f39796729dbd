package local

import (
	"bitwise74/invoice-api/internal/model"
	"time"
)

func (s *Store) GetUser(uid string) (model.User, bool) {
	for _, r := range read[userRecord](s, keyUsers) {
		if r.UID == uid {
			return r.model(), true
		}
	}

	return model.User{}, false
}

// MergeUser applies patch to the profile of uid, creating it with now as its
// creation time when it doesn't exist yet
func (s *Store) MergeUser(uid string, patch model.UserPatch, now time.Time) error {
	return update(s, keyUsers, func(all []userRecord) []userRecord {
		for i := range all {
			if all[i].UID != uid {
				continue
			}

			u := all[i].model()
			patch.Apply(&u)
			all[i] = userFromModel(&u)
			return all
		}

		u := model.User{UID: uid, CreatedAt: now}
		patch.Apply(&u)
		rec := userFromModel(&u)

		return append(all, rec)
	})
}

// AddStorage moves storageUsed by delta without letting it drop below zero
func (s *Store) AddStorage(uid string, delta int64) error {
	return update(s, keyUsers, func(all []userRecord) []userRecord {
		for i := range all {
			if all[i].UID == uid {
				all[i].StorageUsed = max(all[i].StorageUsed+delta, 0)
				break
			}
		}
		return all
	})
}
