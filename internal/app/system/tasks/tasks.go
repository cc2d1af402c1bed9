// internal/app/system/tasks/tasks.go

// Package tasks runs periodic maintenance jobs for the lifetime of the
// process.
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a named periodic task. Run errors are logged, never fatal;
// the job fires again on the next tick.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Start launches one goroutine per job. The jobs stop when ctx is
// canceled.
func Start(ctx context.Context, logger *zap.Logger, jobs ...Job) {
	for _, j := range jobs {
		go run(ctx, logger, j)
	}
}

func run(ctx context.Context, logger *zap.Logger, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				logger.Warn("background job failed",
					zap.String("job", j.Name),
					zap.Error(err))
			}
		}
	}
}
