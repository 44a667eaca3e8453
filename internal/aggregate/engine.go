// Package aggregate derives leftover and meal-completion rates from the
// tag ledger, leftover measurements, menus and roster. Results are never
// stored: every view is recomputed from the underlying facts.
//
// Leftover weighting: every (date, dish) measurement carries weight 1 at
// every scope, i.e. the rate is the mean of per-dish waste rates over all
// measurements in scope. Day values are kept as (sum, count) so that a
// week or month rolled up from its days equals the direct computation.
//
// Completion: a student completes a day when any meal slot was tagged that
// day. The denominator is the roster active on that date. Non-service days
// (holiday-marked, or weekends without a published menu) are excluded from
// both numerator and denominator; at week/month scope the counts are
// student-days.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// maxRangeDays bounds ad-hoc range queries
const maxRangeDays = 366

// RosterSource reads students
type RosterSource interface {
	Get(ctx context.Context, id int64) (*contracts.Student, error)
	List(ctx context.Context, filter contracts.RosterFilter) ([]*contracts.Student, error)
}

// TagSource reads the tag ledger
type TagSource interface {
	QueryTags(ctx context.Context, dr contracts.DateRange, filter contracts.TagFilter) ([]contracts.TagEvent, error)
}

// MeasurementSource reads leftover measurements
type MeasurementSource interface {
	QueryMeasurements(ctx context.Context, dr contracts.DateRange, dishFilter []string) ([]contracts.LeftoverMeasurement, error)
}

// MenuSource reads published menus
type MenuSource interface {
	Range(ctx context.Context, dr contracts.DateRange) ([]*contracts.MenuItem, error)
}

// Engine computes AggregatedRate views
// ⭐ SSOT: 잔반률/완료율 계산은 이 엔진에서만
type Engine struct {
	roster       RosterSource
	tags         TagSource
	measurements MeasurementSource
	menus        MenuSource
	logger       *logger.Logger
}

// NewEngine creates an aggregation engine
func NewEngine(roster RosterSource, tags TagSource, measurements MeasurementSource, menus MenuSource, log *logger.Logger) *Engine {
	return &Engine{
		roster:       roster,
		tags:         tags,
		measurements: measurements,
		menus:        menus,
		logger:       log,
	}
}

// Daily aggregates a single date
func (e *Engine) Daily(ctx context.Context, date time.Time) (*contracts.AggregatedRate, error) {
	return e.aggregate(ctx, contracts.ScopeDay, contracts.SingleDay(date))
}

// Weekly aggregates the Monday–Sunday week containing anyDateInWeek
func (e *Engine) Weekly(ctx context.Context, anyDateInWeek time.Time) (*contracts.AggregatedRate, error) {
	return e.aggregate(ctx, contracts.ScopeWeek, contracts.WeekOf(anyDateInWeek))
}

// Monthly aggregates a calendar month
func (e *Engine) Monthly(ctx context.Context, year int, month time.Month) (*contracts.AggregatedRate, error) {
	if month < time.January || month > time.December {
		return nil, &contracts.ValidationError{Field: "month", Message: fmt.Sprintf("month %d out of range", month)}
	}
	if year < 2000 || year > 2100 {
		return nil, &contracts.ValidationError{Field: "year", Message: fmt.Sprintf("year %d out of range", year)}
	}
	return e.aggregate(ctx, contracts.ScopeMonth, contracts.MonthOf(year, month))
}

// Range aggregates an arbitrary inclusive range
func (e *Engine) Range(ctx context.Context, dr contracts.DateRange) (*contracts.AggregatedRate, error) {
	dr, err := contracts.NewDateRange(dr.From, dr.To)
	if err != nil {
		return nil, err
	}
	if dr.Len() > maxRangeDays {
		return nil, &contracts.ValidationError{Field: "to", Message: fmt.Sprintf("range exceeds %d days", maxRangeDays)}
	}
	return e.aggregate(ctx, contracts.ScopeRange, dr)
}

// StudentWeeklyLeftover is the leftover rate over the days of the week on
// which the student was tagged; nil when no such day has measurements.
func (e *Engine) StudentWeeklyLeftover(ctx context.Context, studentID int64, date time.Time) (*float64, error) {
	if _, err := e.roster.Get(ctx, studentID); err != nil {
		return nil, err
	}

	week := contracts.WeekOf(date)
	events, err := e.tags.QueryTags(ctx, week, contracts.TagFilter{StudentID: studentID, TaggedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("student tags: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	tagged := make(map[string]bool, len(events))
	for _, ev := range events {
		tagged[contracts.FormatDate(ev.Date)] = true
	}

	measurements, err := e.measurements.QueryMeasurements(ctx, week, nil)
	if err != nil {
		return nil, fmt.Errorf("week measurements: %w", err)
	}

	var acc contracts.LeftoverAccumulator
	for _, m := range measurements {
		if tagged[contracts.FormatDate(m.Date)] {
			acc.Add(m.WasteRate)
		}
	}
	return acc.Rate(), nil
}

// SlotCompletion is the completion of one meal slot on one date
func (e *Engine) SlotCompletion(ctx context.Context, date time.Time, slot string) (contracts.CompletionAccumulator, error) {
	day := contracts.SingleDay(date)
	f, err := e.load(ctx, day, contracts.TagFilter{MealSlot: slot, TaggedOnly: true})
	if err != nil {
		return contracts.CompletionAccumulator{}, err
	}
	return f.daily(day.From).Completion, nil
}

func (e *Engine) aggregate(ctx context.Context, scope contracts.Scope, dr contracts.DateRange) (*contracts.AggregatedRate, error) {
	start := time.Now()

	f, err := e.load(ctx, dr, contracts.TagFilter{TaggedOnly: true})
	if err != nil {
		return nil, err
	}

	days := make([]contracts.DailyAggregate, 0, dr.Len())
	for _, d := range dr.Days() {
		days = append(days, f.daily(d))
	}

	result := Rollup(scope, dr, days)

	e.logger.WithFields(map[string]interface{}{
		"scope":        string(scope),
		"range":        dr.String(),
		"measurements": len(f.measurements),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Debug("Aggregated")

	return result, nil
}
