package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/labmoura/laudos/internal/models"
)

// Purge deletes persisted log records written before cutoff.
func Purge(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return res.RowsAffected, res.Error
}

// StartCleanup purges system_logs older than retentionDays once at startup
// and then daily until done is closed. retentionDays <= 0 keeps everything.
func StartCleanup(db *gorm.DB, retentionDays int, done chan struct{}) {
	if retentionDays <= 0 {
		slog.Info("log retention disabled")
		return
	}
	sweep := func() {
		deleted, err := Purge(db, time.Now().AddDate(0, 0, -retentionDays))
		switch {
		case err != nil:
			slog.Error("log cleanup failed", "error", err)
		case deleted > 0:
			slog.Info("log cleanup completed", "deleted", deleted, "retention_days", retentionDays)
		}
	}

	go func() {
		sweep()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep()
			case <-done:
				return
			}
		}
	}()
}
