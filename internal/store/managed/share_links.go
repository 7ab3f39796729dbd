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

type shareLinks struct{ db *gorm.DB }

func (r shareLinks) Put(ctx context.Context, link *model.ShareLink) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&shareLinkRow{
			Token:     link.Token,
			InvoiceID: link.InvoiceID,
			ExpiresAt: util.ToMillis(link.ExpiresAt),
			CreatedAt: util.ToMillis(link.CreatedAt),
		}).Error
}

func (r shareLinks) Get(ctx context.Context, token string) (*model.ShareLink, error) {
	var row shareLinkRow

	err := r.db.WithContext(ctx).
		Where("token = ?", token).
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

func (r shareLinks) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", util.ToMillis(now)).
		Delete(&shareLinkRow{})

	return res.RowsAffected, res.Error
}
