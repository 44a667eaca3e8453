package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/menu"
	"github.com/ssafy/baperang/backend/internal/scheduler"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

type fakeWarmer struct {
	dates []time.Time
	err   error
}

func (f *fakeWarmer) Warm(ctx context.Context, date time.Time) error {
	f.dates = append(f.dates, date)
	return f.err
}

type fakeImporter struct {
	ranges []contracts.DateRange
	result *menu.ImportResult
	err    error
}

func (f *fakeImporter) Import(ctx context.Context, dr contracts.DateRange) (*menu.ImportResult, error) {
	f.ranges = append(f.ranges, dr)
	return f.result, f.err
}

type fakeSweeper struct{ n int }

func (f *fakeSweeper) Sweep() int { return f.n }

func TestAggregateWarmupJob_UsesSchoolDate(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	w := &fakeWarmer{}
	job := NewAggregateWarmupJob(w, seoul, logger.Nop())
	// 2024-03-04 23:30 UTC is already Tuesday in Seoul
	job.now = func() time.Time { return time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, w.dates, 1)
	assert.Equal(t, "2024-03-05", contracts.FormatDate(w.dates[0]))
	assert.Equal(t, "aggregate_warmup", job.Name())

	w.err = errors.New("redis down")
	assert.ErrorContains(t, job.Run(context.Background()), "redis down")
}

func TestAggregateWarmupJob_ReportsWarmedRange(t *testing.T) {
	job := NewAggregateWarmupJob(&fakeWarmer{}, time.UTC, logger.Nop())
	// Friday 2024-03-01: the week reaches back into February
	job.now = func() time.Time { return time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC) }

	s := scheduler.New(logger.Nop(), scheduler.WithRetry(0, 0))
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow("aggregate_warmup")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "2024-02-26", result.From)
	assert.Equal(t, "2024-03-31", result.To)
	assert.Equal(t, 3, result.Items)
}

func TestMenuImportJob_ReportsPublished(t *testing.T) {
	imp := &fakeImporter{result: &menu.ImportResult{Published: 4}}
	job := NewMenuImportJob(imp, "", time.UTC, logger.Nop())
	job.now = func() time.Time { return time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC) }

	s := scheduler.New(logger.Nop(), scheduler.WithRetry(0, 0))
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow("menu_import")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", result.From)
	assert.Equal(t, "2024-03-17", result.To)
	assert.Equal(t, 4, result.Items)
}

func TestUpcomingRange(t *testing.T) {
	wednesday := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	dr := UpcomingRange(wednesday)
	assert.Equal(t, "2024-03-06", contracts.FormatDate(dr.From))
	assert.Equal(t, "2024-03-17", contracts.FormatDate(dr.To))
}

func TestMenuImportJob(t *testing.T) {
	imp := &fakeImporter{result: &menu.ImportResult{Published: 5, Conflicts: []string{"2024-03-07"}}}
	job := NewMenuImportJob(imp, "", time.UTC, logger.Nop())
	job.now = func() time.Time { return time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC) }

	assert.Equal(t, "0 0 6 * * *", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, imp.ranges, 1)
	assert.Equal(t, "2024-03-04", contracts.FormatDate(imp.ranges[0].From))
	assert.Equal(t, "2024-03-17", contracts.FormatDate(imp.ranges[0].To))

	imp.err = errors.New("timeout")
	imp.result = nil
	assert.Error(t, job.Run(context.Background()))
}

func TestCacheCleanupJob(t *testing.T) {
	job := NewCacheCleanupJob(&fakeSweeper{n: 3}, logger.Nop())
	assert.Equal(t, "cache_cleanup", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}
