package db

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// runRetentionOnce performs a single pass of retention cleanup,
// deleting any events whose ExpiresAt is not after now.
func runRetentionOnce(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&Event{})
	return res.RowsAffected, res.Error
}

// StartRetentionWorker launches a background goroutine that runs the
// retention cleanup once at startup and then once per day until ctx is
// cancelled.
func StartRetentionWorker(ctx context.Context, db *gorm.DB, log zerolog.Logger) {
	go func() {
		if n, err := runRetentionOnce(ctx, db, time.Now()); err != nil {
			log.Error().Err(err).Msg("retention cleanup error (startup)")
		} else if n > 0 {
			log.Info().Int64("deleted", n).Msg("retention cleanup")
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				n, err := runRetentionOnce(ctx, db, t)
				if err != nil {
					log.Error().Err(err).Msg("retention cleanup error")
					continue
				}
				log.Info().Int64("deleted", n).Msg("retention cleanup")
			}
		}
	}()
}
