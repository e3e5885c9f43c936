package storage

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type ReaperConfig struct {
	Prefix    string
	Retention time.Duration
	DryRun    bool
	// Table and column holding the public URLs that keep an object alive.
	RefTable  string
	RefColumn string
}

// RegisterOrphanReaper deletes uploads under Prefix that are older than
// Retention and whose URL no row of RefTable references.
func RegisterOrphanReaper(c *cron.Cron, schedule string, st Storage, db *gorm.DB, cfg ReaperConfig) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		n, err := ReapOrphans(ctx, st, db, cfg, time.Now())
		if err != nil {
			log.Printf("[UPLOAD-REAPER] %v", err)
			return
		}
		log.Printf("[UPLOAD-REAPER] backend=%s prefix=%q removed=%d dry=%v", st.Name(), cfg.Prefix, n, cfg.DryRun)
	})
}

func ReapOrphans(ctx context.Context, st Storage, db *gorm.DB, cfg ReaperConfig, now time.Time) (int, error) {
	objs, err := st.List(ctx, cfg.Prefix)
	if err != nil {
		return 0, err
	}
	threshold := now.Add(-cfg.Retention)

	byURL := map[string]string{}
	urls := make([]string, 0)
	for _, o := range objs {
		if o.LastModified.Before(threshold) {
			u := st.PublicURL(o.Key)
			byURL[u] = o.Key
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return 0, nil
	}

	for i := 0; i < len(urls); i += 500 {
		end := i + 500
		if end > len(urls) {
			end = len(urls)
		}
		var used []string
		if err := db.WithContext(ctx).
			Table(cfg.RefTable).
			Where(cfg.RefColumn+" IN ?", urls[i:end]).
			Pluck(cfg.RefColumn, &used).Error; err != nil {
			return 0, err
		}
		for _, u := range used {
			delete(byURL, u)
		}
	}

	keys := make([]string, 0, len(byURL))
	for _, k := range byURL {
		keys = append(keys, k)
	}
	if len(keys) == 0 || cfg.DryRun {
		return len(keys), nil
	}
	if err := st.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}
