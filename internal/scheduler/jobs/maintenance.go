package jobs

import (
	"context"

	"github.com/ssafy/baperang/backend/internal/scheduler"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Sweeper drops expired cache entries
type Sweeper interface {
	Sweep() int
}

// CacheCleanupJob sweeps expired views from the in-process query cache
type CacheCleanupJob struct {
	cache  Sweeper
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache Sweeper, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *" // Every 5 minutes
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	count := j.cache.Sweep()
	scheduler.ReportItems(ctx, count)

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
