package managed

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/util"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type users struct{ db *gorm.DB }

func (r users) Get(ctx context.Context, uid string) (*model.User, error) {
	var row userRow

	err := r.db.WithContext(ctx).
		Where("id = ?", uid).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return row.model(), nil
}

// Merge only writes the columns present in patch so that independently
// tracked fields like storage usage are never overwritten. The insert
// yields to a row created concurrently, which then gets the patch applied.
func (r users) Merge(ctx context.Context, uid string, patch model.UserPatch, now time.Time) error {
	u := model.User{UID: uid, CreatedAt: now}
	patch.Apply(&u)

	db := r.db.WithContext(ctx)

	res := db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(userRowFrom(&u))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	return db.
		Model(&userRow{}).
		Where("id = ?", uid).
		Updates(userColumns(patch)).
		Error
}

func userColumns(p model.UserPatch) map[string]any {
	cols := map[string]any{"role": model.RoleAccountant}

	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.DisplayName != nil {
		cols["display_name"] = *p.DisplayName
	}
	if p.PhotoURL != nil {
		cols["photo_url"] = *p.PhotoURL
	}
	if p.Plan != nil {
		cols["plan"] = *p.Plan
	}
	if p.StorageUsed != nil {
		cols["storage_used"] = *p.StorageUsed
	}
	if p.StorageLimit != nil {
		cols["storage_limit"] = *p.StorageLimit
	}
	if p.TrialExpiresAt != nil {
		cols["trial_expires_at"] = util.ToMillis(*p.TrialExpiresAt)
	}
	if p.GiftCodeUsed != nil {
		cols["gift_code_used"] = *p.GiftCodeUsed
	}

	return cols
}

func (r users) AddStorage(ctx context.Context, uid string, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", uid).
		Update("storage_used", gorm.Expr("CASE WHEN storage_used + ? < 0 THEN 0 ELSE storage_used + ? END", delta, delta)).
		Error
}
