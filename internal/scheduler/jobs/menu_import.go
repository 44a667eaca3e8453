package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/menu"
	"github.com/ssafy/baperang/backend/internal/scheduler"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// MenuImporter pulls published menus for a range
type MenuImporter interface {
	Import(ctx context.Context, dr contracts.DateRange) (*menu.ImportResult, error)
}

// MenuImportJob imports the upcoming week's menu from the school meal page
// ⭐ SSOT: 식단 수집 스케줄은 이 Job에서만
type MenuImportJob struct {
	importer MenuImporter
	schedule string
	loc      *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// NewMenuImportJob creates a new menu import job
func NewMenuImportJob(importer MenuImporter, schedule string, loc *time.Location, log *logger.Logger) *MenuImportJob {
	if schedule == "" {
		schedule = "0 0 6 * * *" // 6 AM daily (with seconds)
	}
	return &MenuImportJob{importer: importer, schedule: schedule, loc: loc, now: time.Now, logger: log}
}

// Name returns the job name
func (j *MenuImportJob) Name() string {
	return "menu_import"
}

// Schedule returns the cron schedule
func (j *MenuImportJob) Schedule() string {
	return j.schedule
}

// UpcomingRange is the rest of this week plus the whole of next week
func UpcomingRange(today time.Time) contracts.DateRange {
	today = contracts.DateOf(today)
	next := contracts.WeekOf(today.AddDate(0, 0, 7))
	return contracts.DateRange{From: today, To: next.To}
}

// Run executes the menu import
func (j *MenuImportJob) Run(ctx context.Context) error {
	dr := UpcomingRange(j.now().In(j.loc))
	j.logger.WithField("range", dr.String()).Info("Starting scheduled menu import")

	result, err := j.importer.Import(ctx, dr)
	if err != nil {
		return fmt.Errorf("import menus: %w", err)
	}
	scheduler.ReportDates(ctx, dr)
	scheduler.ReportItems(ctx, result.Published)

	// 이미 게시된 식단과 다른 내용은 덮어쓰지 않음
	if len(result.Conflicts) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"conflicts": result.Conflicts,
		}).Warn("Menu page disagrees with published menus")
	}
	return nil
}
