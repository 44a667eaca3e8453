package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/scheduler"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Warmer precomputes the cached aggregates around a date
type Warmer interface {
	Warm(ctx context.Context, date time.Time) error
}

// AggregateWarmupJob fills the query cache after lunch so dashboards open warm
// ⭐ SSOT: 집계 캐시 예열 스케줄은 이 Job에서만
type AggregateWarmupJob struct {
	warmer Warmer
	loc    *time.Location
	now    func() time.Time
	logger *logger.Logger
}

// NewAggregateWarmupJob creates a new warm-up job; today is taken in loc
func NewAggregateWarmupJob(warmer Warmer, loc *time.Location, log *logger.Logger) *AggregateWarmupJob {
	return &AggregateWarmupJob{warmer: warmer, loc: loc, now: time.Now, logger: log}
}

// Name returns the job name
func (j *AggregateWarmupJob) Name() string {
	return "aggregate_warmup"
}

// Schedule returns the cron schedule (weekdays at 2 PM)
func (j *AggregateWarmupJob) Schedule() string {
	return "0 0 14 * * 1-5"
}

// Run warms the day, week and month containing today
func (j *AggregateWarmupJob) Run(ctx context.Context) error {
	today := contracts.DateOf(j.now().In(j.loc))
	j.logger.WithDate(today).Info("Starting aggregate warm-up")

	if err := j.warmer.Warm(ctx, today); err != nil {
		return fmt.Errorf("warm aggregates: %w", err)
	}

	// 오늘이 속한 주와 월 전체가 예열됨
	scheduler.ReportDates(ctx, contracts.WeekOf(today))
	scheduler.ReportDates(ctx, contracts.MonthOf(today.Year(), today.Month()))
	scheduler.ReportItems(ctx, 3)
	return nil
}
