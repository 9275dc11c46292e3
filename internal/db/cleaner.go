package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartSoftDeleteCleaner purges sessions deleted more than retention ago,
// every interval, until ctx is done. Their messages go with them.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purgeDeletedSessions(ctx, db, time.Now().Add(-retention), log)
			}
		}
	}()
}

func purgeDeletedSessions(ctx context.Context, db *sql.DB, cutoff time.Time, log *zap.Logger) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM sessions
         WHERE deleted_at IS NOT NULL
           AND deleted_at < $1
    `, cutoff)
	if err != nil {
		log.Error("failed to purge deleted sessions", zap.Error(err))
		return
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		log.Info("purged deleted sessions", zap.Int64("removed", rows))
	}
}
