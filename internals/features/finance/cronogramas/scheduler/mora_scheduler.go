package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/cronogramas/service"
)

// RegisterMoraAccrual runs the late-fee accrual for every school on schedule.
// The cron is expected to run in the school timezone so "today" matches the
// civil date used for due dates.
func RegisterMoraAccrual(c *cron.Cron, schedule string, db *gorm.DB, loc *time.Location) (cron.EntryID, error) {
	svc := service.New(db, loc)
	return c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		start := time.Now()
		res, err := svc.AccrueLateFees(ctx, nil, svc.Today())
		if err != nil {
			log.Printf("[MORA] accrual failed: %v", err)
			return
		}
		log.Printf("[MORA] as_of=%s revisadas=%d actualizadas=%d in %s",
			res.AsOf.Format("2006-01-02"), res.Revisadas, res.Actualizadas, time.Since(start).Round(time.Millisecond))
	})
}
