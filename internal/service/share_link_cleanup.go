package service

import (
	"bitwise74/invoice-api/internal/sharelink"
	"bitwise74/invoice-api/internal/store"
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ShareLinkCleanup periodically removes expired share links from every
// repository that doesn't expire them on its own. schedule is a standard cron
// expression or descriptor like "@daily".
func ShareLinkCleanup(schedule string, repos map[string]store.ShareLinkRepository) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		for name, repo := range repos {
			n, err := sharelink.New(repo).Cleanup(ctx)
			if err != nil {
				zap.L().Error("Failed to clean up expired share links", zap.String("backend", name), zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Cleaned up expired share links", zap.String("backend", name), zap.Int64("count", n))
			}
		}
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Share link cleanup attached", zap.String("schedule", schedule))

	c.Start()
	return c, nil
}
