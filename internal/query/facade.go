// Package query shapes aggregation results into the dashboard's response
// formats. It never writes facts. Aggregates are cached under a key that
// includes the write-version stamp of every date in scope, so any tag,
// measurement or menu write inside the scope makes old entries unreachable
// immediately; TTL only reclaims space.
package query

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ssafy/baperang/backend/internal/aggregate"
	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
	"github.com/ssafy/baperang/backend/pkg/redis"
)

// Engine is the aggregation surface the façade reads
type Engine interface {
	Daily(ctx context.Context, date time.Time) (*contracts.AggregatedRate, error)
	Weekly(ctx context.Context, anyDateInWeek time.Time) (*contracts.AggregatedRate, error)
	Monthly(ctx context.Context, year int, month time.Month) (*contracts.AggregatedRate, error)
	Range(ctx context.Context, dr contracts.DateRange) (*contracts.AggregatedRate, error)
	StudentWeeklyLeftover(ctx context.Context, studentID int64, date time.Time) (*float64, error)
	SlotCompletion(ctx context.Context, date time.Time, slot string) (contracts.CompletionAccumulator, error)
}

// Facade is the read-only Query Façade
// ⭐ SSOT: 대시보드 응답 형태는 여기서만 만듦
type Facade struct {
	engine     Engine
	roster     aggregate.RosterSource
	tags       aggregate.TagSource
	menus      MenuSource
	versions   VersionStore
	cache      Cache
	ttl        time.Duration
	schoolName string
	mealSlots  map[string]bool
	logger     *logger.Logger

	// failed version bumps since the last successful repair; while non-zero
	// no stamp can be trusted and every read bypasses the cache
	unbumped atomic.Int64
}

// MenuSource reads the menu catalog
type MenuSource interface {
	Range(ctx context.Context, dr contracts.DateRange) ([]*contracts.MenuItem, error)
	Nutrient(ctx context.Context, date time.Time, dish string) (*contracts.NutrientInfo, error)
}

// Options configures a Facade
type Options struct {
	Versions   VersionStore
	Cache      Cache
	TTL        time.Duration
	SchoolName string
	MealSlots  []string // accepted by Completion; empty accepts any slot
}

// NewFacade creates a query façade. Nil stores default to in-process ones.
func NewFacade(engine Engine, roster aggregate.RosterSource, tags aggregate.TagSource, menus MenuSource, opts Options, log *logger.Logger) *Facade {
	if opts.Versions == nil {
		opts.Versions = NewMemoryVersions()
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.TTL <= 0 {
		opts.TTL = redis.TTLMedium
	}
	return &Facade{
		engine:     engine,
		roster:     roster,
		tags:       tags,
		menus:      menus,
		versions:   opts.Versions,
		cache:      opts.Cache,
		ttl:        opts.TTL,
		schoolName: opts.SchoolName,
		mealSlots:  slotSet(opts.MealSlots),
		logger:     log,
	}
}

func slotSet(slots []string) map[string]bool {
	if len(slots) == 0 {
		return nil
	}
	set := make(map[string]bool, len(slots))
	for _, s := range slots {
		set[s] = true
	}
	return set
}

// DatesChanged implements contracts.ChangeListener
func (f *Facade) DatesChanged(ctx context.Context, dates ...time.Time) {
	var err error
	if len(dates) == 0 {
		err = f.versions.BumpAll(ctx)
	} else {
		err = f.versions.Bump(ctx, dates...)
	}
	if err != nil {
		f.unbumped.Add(1)
		f.logger.WithError(err).Warn("Failed to bump date versions, bypassing cache until versions recover")
	}
}

// stamp returns the version stamp of dr. After a failed bump it first tries a
// global bump; ok is false until that succeeds or when no stamp is readable.
func (f *Facade) stamp(ctx context.Context, dr contracts.DateRange) (int64, bool) {
	if pending := f.unbumped.Load(); pending > 0 {
		if err := f.versions.BumpAll(ctx); err != nil {
			return 0, false
		}
		// a bump that failed meanwhile keeps the façade bypassing
		if f.unbumped.CompareAndSwap(pending, 0) {
			f.logger.Info("Date versions recovered")
		}
		if f.unbumped.Load() > 0 {
			return 0, false
		}
	}

	stamp, err := f.versions.Stamp(ctx, dr)
	if err != nil {
		f.logger.WithError(err).Warn("Version stamp unavailable, bypassing cache")
		return 0, false
	}
	return stamp, true
}

// cached returns the value stored under key(stamp of dr), computing it on a
// miss. Without a trustworthy stamp it always computes.
func cached[T any](ctx context.Context, f *Facade, dr contracts.DateRange, key func(stamp string) string, compute func() (*T, error)) (*T, error) {
	stamp, ok := f.stamp(ctx, dr)
	if !ok {
		return compute()
	}
	k := key(fmt.Sprint(stamp))

	var hit T
	if found, err := f.cache.Get(ctx, k, &hit); err == nil && found {
		return &hit, nil
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, k, result, f.ttl); err != nil {
		f.logger.WithError(err).Debug("Cache write failed")
	}
	return result, nil
}

// aggregateFor returns the cached aggregate of dr, computing it on a miss
func (f *Facade) aggregateFor(ctx context.Context, scope contracts.Scope, dr contracts.DateRange, compute func() (*contracts.AggregatedRate, error)) (*contracts.AggregatedRate, error) {
	return cached(ctx, f, dr, func(stamp string) string {
		return redis.AggregateKey(string(scope), dr.String(), stamp)
	}, compute)
}

func (f *Facade) daily(ctx context.Context, date time.Time) (*contracts.AggregatedRate, error) {
	dr := contracts.SingleDay(date)
	return f.aggregateFor(ctx, contracts.ScopeDay, dr, func() (*contracts.AggregatedRate, error) {
		return f.engine.Daily(ctx, dr.From)
	})
}

func (f *Facade) weekly(ctx context.Context, date time.Time) (*contracts.AggregatedRate, error) {
	dr := contracts.WeekOf(date)
	return f.aggregateFor(ctx, contracts.ScopeWeek, dr, func() (*contracts.AggregatedRate, error) {
		return f.engine.Weekly(ctx, dr.From)
	})
}

func (f *Facade) monthly(ctx context.Context, year int, month time.Month) (*contracts.AggregatedRate, error) {
	if month < time.January || month > time.December {
		return nil, &contracts.ValidationError{Field: "month", Message: fmt.Sprintf("month %d out of range", month)}
	}
	dr := contracts.MonthOf(year, month)
	return f.aggregateFor(ctx, contracts.ScopeMonth, dr, func() (*contracts.AggregatedRate, error) {
		return f.engine.Monthly(ctx, year, month)
	})
}

func (f *Facade) ranged(ctx context.Context, dr contracts.DateRange) (*contracts.AggregatedRate, error) {
	dr, err := contracts.NewDateRange(dr.From, dr.To)
	if err != nil {
		return nil, err
	}
	return f.aggregateFor(ctx, contracts.ScopeRange, dr, func() (*contracts.AggregatedRate, error) {
		return f.engine.Range(ctx, dr)
	})
}

// Aggregate exposes the raw aggregate of a range with its per-date series (cached)
func (f *Facade) Aggregate(ctx context.Context, dr contracts.DateRange) (*contracts.AggregatedRate, error) {
	return f.ranged(ctx, dr)
}

// DailyLeftover shapes the leftover view of one date
func (f *Facade) DailyLeftover(ctx context.Context, date time.Time) (*DailyLeftoverResponse, error) {
	agg, err := f.daily(ctx, date)
	if err != nil {
		return nil, err
	}

	resp := &DailyLeftoverResponse{
		Date:         contracts.FormatDate(agg.From),
		LeftoverRate: roundPtr(agg.LeftoverRate, 4),
		Dishes:       make([]LeftoverData, 0, len(agg.Dishes)),
	}
	for _, d := range agg.Dishes {
		resp.Dishes = append(resp.Dishes, LeftoverData{DishName: d.DishName, WasteRate: round(d.WasteRate, 4)})
	}
	return resp, nil
}

// WeeklyLeftover shapes the leftover series of the week containing date
func (f *Facade) WeeklyLeftover(ctx context.Context, date time.Time) (*WeeklyLeftoverResponse, error) {
	agg, err := f.weekly(ctx, date)
	if err != nil {
		return nil, err
	}
	return &WeeklyLeftoverResponse{
		From:         contracts.FormatDate(agg.From),
		To:           contracts.FormatDate(agg.To),
		LeftoverRate: roundPtr(agg.LeftoverRate, 4),
		Days:         series(agg.Days, false),
	}, nil
}

// MonthlyLeftover shapes the leftover series of a calendar month
func (f *Facade) MonthlyLeftover(ctx context.Context, year int, month time.Month) (*MonthlyLeftoverResponse, error) {
	agg, err := f.monthly(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return &MonthlyLeftoverResponse{
		Year:         year,
		Month:        int(month),
		LeftoverRate: roundPtr(agg.LeftoverRate, 4),
		Days:         series(agg.Days, true),
	}, nil
}

func series(days []contracts.DailyAggregate, withDay bool) []LeftoverDay {
	out := make([]LeftoverDay, 0, len(days))
	for _, d := range days {
		point := LeftoverDay{
			Date:         contracts.FormatDate(d.Date),
			LeftoverRate: roundPtr(d.Leftover.Rate(), 4),
		}
		if withDay {
			point.Day = d.Date.Day()
		}
		out = append(out, point)
	}
	return out
}

// Ranking lists dishes of the range by waste rate for the chart widgets
func (f *Facade) Ranking(ctx context.Context, dr contracts.DateRange) ([]WasteData, error) {
	agg, err := f.ranged(ctx, dr)
	if err != nil {
		return nil, err
	}
	return wasteData(agg.Dishes), nil
}

// Preference lists dishes with a preference score, highest first
func (f *Facade) Preference(ctx context.Context, dr contracts.DateRange) ([]PreferenceData, error) {
	agg, err := f.ranged(ctx, dr)
	if err != nil {
		return nil, err
	}

	out := []PreferenceData{}
	for _, d := range agg.Dishes {
		if d.PreferenceScore != nil {
			out = append(out, PreferenceData{Name: d.DishName, Preference: round(*d.PreferenceScore, 1)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Preference != out[j].Preference {
			return out[i].Preference > out[j].Preference
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Completion shapes the meal completion card of one date. An empty slot
// counts a student who tagged in any slot; otherwise only that slot counts.
func (f *Facade) Completion(ctx context.Context, date time.Time, slot string) (*MealCompletionRate, error) {
	if slot == "" {
		agg, err := f.daily(ctx, date)
		if err != nil {
			return nil, err
		}
		return completionCard(agg.CompletionRate, agg.TotalStudents, agg.CompletedStudents, ""), nil
	}

	if f.mealSlots != nil && !f.mealSlots[slot] {
		return nil, &contracts.ValidationError{Field: "mealSlot", Message: fmt.Sprintf("unknown meal slot %q", slot)}
	}
	dr := contracts.SingleDay(date)
	acc, err := cached(ctx, f, dr, func(stamp string) string {
		return redis.AggregateKey("slot-"+slot, dr.String(), stamp)
	}, func() (*contracts.CompletionAccumulator, error) {
		acc, err := f.engine.SlotCompletion(ctx, dr.From, slot)
		if err != nil {
			return nil, err
		}
		return &acc, nil
	})
	if err != nil {
		return nil, err
	}
	return completionCard(acc.Rate(), acc.Total, acc.Completed, slot), nil
}

func completionCard(rate *float64, total, completed int, slot string) *MealCompletionRate {
	return &MealCompletionRate{
		CompletionRate:    percentPtr(rate),
		TotalStudents:     total,
		CompletedStudents: completed,
		MealSlot:          slot,
	}
}

// Students lists the roster
func (f *Facade) Students(ctx context.Context, filter contracts.RosterFilter) (*StudentListResponse, error) {
	students, err := f.roster.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	resp := &StudentListResponse{Students: make([]StudentSummary, 0, len(students))}
	for _, s := range students {
		resp.Students = append(resp.Students, StudentSummary{
			StudentID:   s.ID,
			StudentName: s.Name,
			Grade:       s.Grade,
			ClassNum:    s.ClassNum,
			Number:      s.Number,
			Gender:      s.Gender,
		})
	}
	return resp, nil
}

// StudentDetail returns one student with the weekly leftover average of the
// week containing date
func (f *Facade) StudentDetail(ctx context.Context, id int64, date time.Time) (*StudentDetailResponse, error) {
	s, err := f.roster.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	weekly, err := f.engine.StudentWeeklyLeftover(ctx, id, date)
	if err != nil {
		return nil, err
	}

	resp := &StudentDetailResponse{
		StudentID:             s.ID,
		StudentName:           s.Name,
		Grade:                 s.Grade,
		ClassNum:              s.ClassNum,
		Number:                s.Number,
		Gender:                s.Gender,
		Height:                s.Height,
		Weight:                s.Weight,
		BMI:                   s.BMI(),
		Content:               bmiContent(s.BMI()),
		SchoolName:            f.schoolName,
		WeeklyLeftoverAverage: percentPtr(weekly),
	}
	if s.MeasuredOn != nil {
		resp.Date = contracts.FormatDate(*s.MeasuredOn)
	}
	return resp, nil
}

// NFCStudents lists students active on date with their tagging state.
// An empty slot counts a tag in any slot.
func (f *Facade) NFCStudents(ctx context.Context, date time.Time, slot string) ([]StudentInfo, error) {
	students, err := f.roster.List(ctx, contracts.RosterFilter{})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	events, err := f.tags.QueryTags(ctx, contracts.SingleDay(date), contracts.TagFilter{MealSlot: slot, TaggedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}

	tagged := make(map[int64]bool, len(events))
	for _, ev := range events {
		tagged[ev.StudentID] = true
	}

	out := make([]StudentInfo, 0, len(students))
	for _, s := range students {
		if !s.ActiveOn(date) {
			continue
		}
		out = append(out, StudentInfo{StudentID: s.ID, Name: s.Name, Gender: s.Gender, IsTagged: tagged[s.ID]})
	}
	return out, nil
}

// Menu shapes the menu calendar with each day's measured waste
func (f *Facade) Menu(ctx context.Context, dr contracts.DateRange) (*MenuResponse, error) {
	dr, err := contracts.NewDateRange(dr.From, dr.To)
	if err != nil {
		return nil, err
	}

	return cached(ctx, f, dr, func(stamp string) string {
		return redis.MenuKey(contracts.FormatDate(dr.From), contracts.FormatDate(dr.To), stamp)
	}, func() (*MenuResponse, error) {
		return f.menu(ctx, dr)
	})
}

func (f *Facade) menu(ctx context.Context, dr contracts.DateRange) (*MenuResponse, error) {
	agg, err := f.ranged(ctx, dr)
	if err != nil {
		return nil, err
	}
	menus, err := f.menus.Range(ctx, contracts.DateRange{From: agg.From, To: agg.To})
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*contracts.MenuItem, len(menus))
	for _, m := range menus {
		byDate[contracts.FormatDate(m.Date)] = m
	}

	resp := &MenuResponse{Days: make([]DayMenuData, 0, len(agg.Days))}
	for _, d := range agg.Days {
		key := contracts.FormatDate(d.Date)
		day := DayMenuData{
			Date:          key,
			DayOfWeekName: dayNames[d.Date.Weekday()],
			Menu:          []MenuView{},
			Holiday:       d.Holiday,
		}
		if m, ok := byDate[key]; ok {
			day.Menu = append(day.Menu, MenuView{
				MenuID:    m.MenuID,
				MenuName:  m.MenuName,
				Date:      key,
				Menu:      m.Dishes,
				WasteData: wasteData(d.Dishes),
				Holiday:   m.Holiday,
				Nutrient:  m.TotalNutrient(),
			})
		}
		resp.Days = append(resp.Days, day)
	}
	return resp, nil
}

var nutrientLabels = []struct {
	label string
	unit  string
	value func(contracts.NutrientInfo) float64
}{
	{"에너지", "kcal", func(n contracts.NutrientInfo) float64 { return n.Kcal }},
	{"탄수화물", "g", func(n contracts.NutrientInfo) float64 { return n.Carbo }},
	{"단백질", "g", func(n contracts.NutrientInfo) float64 { return n.Protein }},
	{"지방", "g", func(n contracts.NutrientInfo) float64 { return n.Fat }},
	{"철", "mg", func(n contracts.NutrientInfo) float64 { return n.Iron }},
	{"마그네슘", "mg", func(n contracts.NutrientInfo) float64 { return n.Magnesium }},
	{"아연", "mg", func(n contracts.NutrientInfo) float64 { return n.Zinc }},
	{"칼슘", "mg", func(n contracts.NutrientInfo) float64 { return n.Calcium }},
	{"칼륨", "mg", func(n contracts.NutrientInfo) float64 { return n.Potassium }},
	{"인", "mg", func(n contracts.NutrientInfo) float64 { return n.Phosphorus }},
	{"당류", "g", func(n contracts.NutrientInfo) float64 { return n.Sugar }},
	{"나트륨", "mg", func(n contracts.NutrientInfo) float64 { return n.Sodium }},
}

// Nutrient formats the nutrient facts of a dish, or of the whole menu when dish is empty
func (f *Facade) Nutrient(ctx context.Context, date time.Time, dish string) (*NutrientResponse, error) {
	info, err := f.menus.Nutrient(ctx, date, dish)
	if err != nil {
		return nil, err
	}

	resp := &NutrientResponse{Nutrients: make(map[string]string, len(nutrientLabels)), Menu: dish}
	if dish == "" {
		resp.Menu = "전체"
	}
	for _, l := range nutrientLabels {
		resp.Nutrients[l.label] = fmt.Sprintf("%.2f%s", l.value(*info), l.unit)
	}
	return resp, nil
}

// Warm precomputes the day, week and month containing date
func (f *Facade) Warm(ctx context.Context, date time.Time) error {
	if _, err := f.daily(ctx, date); err != nil {
		return fmt.Errorf("warm daily: %w", err)
	}
	if _, err := f.weekly(ctx, date); err != nil {
		return fmt.Errorf("warm weekly: %w", err)
	}
	if _, err := f.monthly(ctx, date.Year(), date.Month()); err != nil {
		return fmt.Errorf("warm monthly: %w", err)
	}
	f.logger.WithDate(date).Debug("Aggregate caches warmed")
	return nil
}
