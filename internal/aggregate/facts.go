package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// facts is everything a range aggregation reads, loaded once per request
type facts struct {
	students     []*contracts.Student
	tagged       map[string]map[int64]bool // date -> students with a tagged slot
	measurements []contracts.LeftoverMeasurement
	byDate       map[string][]contracts.LeftoverMeasurement
	menus        map[string]*contracts.MenuItem
}

func (e *Engine) load(ctx context.Context, dr contracts.DateRange, tagFilter contracts.TagFilter) (*facts, error) {
	students, err := e.roster.List(ctx, contracts.RosterFilter{})
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	events, err := e.tags.QueryTags(ctx, dr, tagFilter)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}

	measurements, err := e.measurements.QueryMeasurements(ctx, dr, nil)
	if err != nil {
		return nil, fmt.Errorf("load measurements: %w", err)
	}

	menus, err := e.menus.Range(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("load menus: %w", err)
	}

	f := &facts{
		students:     students,
		tagged:       make(map[string]map[int64]bool),
		measurements: measurements,
		byDate:       make(map[string][]contracts.LeftoverMeasurement),
		menus:        make(map[string]*contracts.MenuItem, len(menus)),
	}
	for _, ev := range events {
		if !ev.IsTagged {
			continue
		}
		key := contracts.FormatDate(ev.Date)
		if f.tagged[key] == nil {
			f.tagged[key] = make(map[int64]bool)
		}
		f.tagged[key][ev.StudentID] = true
	}
	for _, m := range measurements {
		key := contracts.FormatDate(m.Date)
		f.byDate[key] = append(f.byDate[key], m)
	}
	for _, m := range menus {
		f.menus[contracts.FormatDate(m.Date)] = m
	}
	return f, nil
}

// IsServiceDay reports whether meals are served: not holiday-marked, and
// either a weekday or a date with a published menu.
func IsServiceDay(date time.Time, menu *contracts.MenuItem) bool {
	if menu != nil {
		return !menu.IsHoliday()
	}
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// daily computes the building block for one date
func (f *facts) daily(date time.Time) contracts.DailyAggregate {
	key := contracts.FormatDate(date)
	menu := f.menus[key]

	day := contracts.DailyAggregate{
		Date:       date,
		ServiceDay: IsServiceDay(date, menu),
		Dishes:     []contracts.DishRate{},
	}
	if menu != nil && menu.IsHoliday() {
		day.Holiday = append([]string(nil), menu.Holiday...)
	}

	for _, m := range f.byDate[key] {
		day.Leftover.Add(m.WasteRate)
		day.Dishes = append(day.Dishes, contracts.DishRate{
			DishName:        m.DishName,
			WasteRate:       m.WasteRate,
			PreferenceScore: m.PreferenceScore,
			Category:        m.Category,
			Measurements:    1,
		})
	}
	contracts.SortDishRates(day.Dishes)

	if day.ServiceDay {
		tagged := f.tagged[key]
		for _, s := range f.students {
			if !s.ActiveOn(date) {
				continue
			}
			day.Completion.Total++
			if tagged[s.ID] {
				day.Completion.Completed++
			}
		}
	}

	return day
}
