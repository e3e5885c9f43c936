package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	helperAuth "colegio_backend/internals/helpers/auth"
)

// RegisterBlacklistCleanup purges revoked tokens that are already expired,
// once a day at 03:00 (cron location).
func RegisterBlacklistCleanup(c *cron.Cron, db *gorm.DB) (cron.EntryID, error) {
	return c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := helperAuth.PurgeExpiredBlacklist(ctx, db, time.Now())
		if err != nil {
			log.Printf("[CLEANUP] token_blacklist purge failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[CLEANUP] token_blacklist: %d expired rows removed", n)
		}
	})
}
