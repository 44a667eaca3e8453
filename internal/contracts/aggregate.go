package contracts

import (
	"sort"
	"time"
)

// Scope is the aggregation granularity
type Scope string

const (
	ScopeDay   Scope = "day"
	ScopeWeek  Scope = "week"
	ScopeMonth Scope = "month"
	ScopeRange Scope = "range"
)

// LeftoverAccumulator is the additive form of the leftover rate.
// Every (date, dish) measurement has weight 1 at every scope, so merging
// daily accumulators equals accumulating the raw measurements directly.
type LeftoverAccumulator struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

// Add folds one measurement in
func (a *LeftoverAccumulator) Add(rate float64) {
	a.Sum += rate
	a.Count++
}

// Merge folds another accumulator in
func (a *LeftoverAccumulator) Merge(o LeftoverAccumulator) {
	a.Sum += o.Sum
	a.Count += o.Count
}

// Rate is the mean waste rate; nil means "no measurements", distinct from 0
func (a LeftoverAccumulator) Rate() *float64 {
	if a.Count == 0 {
		return nil
	}
	r := a.Sum / float64(a.Count)
	return &r
}

// CompletionAccumulator counts student-days that completed a meal
type CompletionAccumulator struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Merge folds another accumulator in
func (a *CompletionAccumulator) Merge(o CompletionAccumulator) {
	a.Completed += o.Completed
	a.Total += o.Total
}

// Rate is Completed/Total; nil when nobody was enrolled
func (a CompletionAccumulator) Rate() *float64 {
	if a.Total == 0 {
		return nil
	}
	r := float64(a.Completed) / float64(a.Total)
	return &r
}

// DishRate is one line of a per-dish breakdown
type DishRate struct {
	DishName        string   `json:"dishName"`
	WasteRate       float64  `json:"wasteRate"`
	PreferenceScore *float64 `json:"preferenceScore,omitempty"`
	Category        string   `json:"category,omitempty"`
	Measurements    int      `json:"measurements"`
}

// SortDishRates orders by descending waste rate, then dish name ascending
func SortDishRates(dishes []DishRate) {
	sort.SliceStable(dishes, func(i, j int) bool {
		if dishes[i].WasteRate != dishes[j].WasteRate {
			return dishes[i].WasteRate > dishes[j].WasteRate
		}
		return dishes[i].DishName < dishes[j].DishName
	})
}

// DailyAggregate is the per-date building block every scope rolls up from
type DailyAggregate struct {
	Date       time.Time             `json:"date"`
	ServiceDay bool                  `json:"serviceDay"`
	Holiday    []string              `json:"holiday,omitempty"`
	Leftover   LeftoverAccumulator   `json:"leftover"`
	Completion CompletionAccumulator `json:"completion"`
	Dishes     []DishRate            `json:"dishes"`
}

// AggregatedRate is a derived view; recomputed from ledger and measurement facts
type AggregatedRate struct {
	Scope             Scope            `json:"scope"`
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	LeftoverRate      *float64         `json:"leftoverRate"`
	CompletionRate    *float64         `json:"completionRate"`
	TotalStudents     int              `json:"totalStudents"`
	CompletedStudents int              `json:"completedStudents"`
	MeasuredDishes    int              `json:"measuredDishes"`
	Dishes            []DishRate       `json:"dishes"`
	Days              []DailyAggregate `json:"days"`
}
