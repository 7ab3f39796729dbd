// Package model defines the entities shared by every layer of the service
package model

import "time"

const (
	RoleAccountant = "accountant"

	// 1 GB
	DefaultStorageLimit int64 = 1_000_000_000

	PlanFree = "free"
	PlanDemo = "demo"
)

type User struct {
	UID            string     `json:"uid"`
	Role           string     `json:"role"`
	Email          string     `json:"email,omitempty"`
	DisplayName    string     `json:"displayName,omitempty"`
	PhotoURL       string     `json:"photoURL,omitempty"`
	Plan           string     `json:"plan,omitempty"`
	StorageUsed    int64      `json:"storageUsed"`
	StorageLimit   int64      `json:"storageLimit"`
	TrialExpiresAt *time.Time `json:"trialExpiresAt,omitempty"`
	GiftCodeUsed   bool       `json:"giftCodeUsed"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UserPatch carries the fields a profile merge should touch. Nil fields are
// left alone. There is no Role field, role is always stamped by the store.
type UserPatch struct {
	Email          *string
	DisplayName    *string
	PhotoURL       *string
	Plan           *string
	StorageUsed    *int64
	StorageLimit   *int64
	TrialExpiresAt *time.Time
	GiftCodeUsed   *bool
}

// Apply merges p into u
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if p.Plan != nil {
		u.Plan = *p.Plan
	}
	if p.StorageUsed != nil {
		u.StorageUsed = *p.StorageUsed
	}
	if p.StorageLimit != nil {
		u.StorageLimit = *p.StorageLimit
	}
	if p.TrialExpiresAt != nil {
		t := *p.TrialExpiresAt
		u.TrialExpiresAt = &t
	}
	if p.GiftCodeUsed != nil {
		u.GiftCodeUsed = *p.GiftCodeUsed
	}

	u.Role = RoleAccountant
}

// Ptr is a small helper for building patches
func Ptr[T any](v T) *T {
	return &v
}
