package aggregate

import (
	"github.com/ssafy/baperang/backend/internal/contracts"
)

type dishAcc struct {
	leftover  contracts.LeftoverAccumulator
	prefSum   float64
	prefCount int
	category  string
}

// Rollup merges daily building blocks into one scope result. Both the
// leftover and completion accumulators are additive, so any partition of
// the days rolls up to the same answer.
func Rollup(scope contracts.Scope, dr contracts.DateRange, days []contracts.DailyAggregate) *contracts.AggregatedRate {
	var leftover contracts.LeftoverAccumulator
	var completion contracts.CompletionAccumulator
	dishes := make(map[string]*dishAcc)

	for _, d := range days {
		leftover.Merge(d.Leftover)
		completion.Merge(d.Completion)

		for _, dish := range d.Dishes {
			acc, ok := dishes[dish.DishName]
			if !ok {
				acc = &dishAcc{}
				dishes[dish.DishName] = acc
			}
			acc.leftover.Merge(contracts.LeftoverAccumulator{
				Sum:   dish.WasteRate * float64(dish.Measurements),
				Count: dish.Measurements,
			})
			if dish.PreferenceScore != nil {
				acc.prefSum += *dish.PreferenceScore * float64(dish.Measurements)
				acc.prefCount += dish.Measurements
			}
			if dish.Category != "" {
				acc.category = dish.Category
			}
		}
	}

	ranked := make([]contracts.DishRate, 0, len(dishes))
	for name, acc := range dishes {
		rate := acc.leftover.Rate()
		if rate == nil {
			continue
		}
		line := contracts.DishRate{
			DishName:     name,
			WasteRate:    *rate,
			Category:     acc.category,
			Measurements: acc.leftover.Count,
		}
		if acc.prefCount > 0 {
			p := acc.prefSum / float64(acc.prefCount)
			line.PreferenceScore = &p
		}
		ranked = append(ranked, line)
	}
	contracts.SortDishRates(ranked)

	return &contracts.AggregatedRate{
		Scope:             scope,
		From:              dr.From,
		To:                dr.To,
		LeftoverRate:      leftover.Rate(),
		CompletionRate:    completion.Rate(),
		TotalStudents:     completion.Total,
		CompletedStudents: completion.Completed,
		MeasuredDishes:    len(ranked),
		Dishes:            ranked,
		Days:              days,
	}
}
