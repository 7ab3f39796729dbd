package managed

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/pkg/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

type clients struct{ db *gorm.DB }

func (r clients) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(&clientRow{
		ID:        c.ID,
		UserID:    c.UID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		CreatedAt: util.ToMillis(c.CreatedAt),
	}).Error
}

func (r clients) Get(ctx context.Context, id string) (*model.Client, error) {
	var row clientRow

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	c := row.model()
	return &c, nil
}

func (r clients) ListByOwner(ctx context.Context, uid string) ([]model.Client, error) {
	var rows []clientRow

	err := r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	out := make([]model.Client, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].model())
	}

	return out, nil
}

func (r clients) Delete(ctx context.Context, id, uid string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, id).
		Delete(&clientRow{}).
		Error
}
