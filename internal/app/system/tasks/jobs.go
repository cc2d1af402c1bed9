// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/store/audit"
	"go.uber.org/zap"
)

// AuditRetentionJob prunes audit events older than the retention
// window. Runs hourly; the deletion itself is cheap thanks to the
// created_at index.
func AuditRetentionJob(store *audit.Store, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := store.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("pruned audit events",
					zap.Int64("count", count),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
