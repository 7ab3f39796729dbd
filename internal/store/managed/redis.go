package managed

import (
	"bitwise74/invoice-api/internal/model"
	"bitwise74/invoice-api/internal/store"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const shareLinkPrefix = "share:"

// RedisShareLinks keeps share links as JSON values whose key TTL matches the
// link lifetime, so Redis does the garbage collection
type RedisShareLinks struct {
	client *redis.Client
}

func NewRedisShareLinks(client *redis.Client) *RedisShareLinks {
	return &RedisShareLinks{client: client}
}

func (r *RedisShareLinks) Put(ctx context.Context, link *model.ShareLink) error {
	ttl := link.ExpiresAt.Sub(link.CreatedAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("marshal share link: %w", err)
	}

	if err := r.client.Set(ctx, shareLinkPrefix+link.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("save share link: %w", err)
	}

	return nil
}

func (r *RedisShareLinks) Get(ctx context.Context, token string) (*model.ShareLink, error) {
	data, err := r.client.Get(ctx, shareLinkPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("lookup share link: %w", err)
	}

	var link model.ShareLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("unmarshal share link: %w", err)
	}

	return &link, nil
}

// DeleteExpired is a no-op, keys expire on their own
func (r *RedisShareLinks) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
