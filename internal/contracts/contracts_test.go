package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestLeftoverAccumulator(t *testing.T) {
	var a LeftoverAccumulator
	assert.Nil(t, a.Rate(), "no measurements is not zero waste")

	a.Add(0.35)
	a.Add(0.10)
	require.NotNil(t, a.Rate())
	assert.InDelta(t, 0.225, *a.Rate(), 1e-9)

	var b LeftoverAccumulator
	b.Add(0.0)
	a.Merge(b)
	assert.Equal(t, 3, a.Count)
	assert.InDelta(t, 0.15, *a.Rate(), 1e-9)
}

func TestCompletionAccumulator(t *testing.T) {
	assert.Nil(t, CompletionAccumulator{}.Rate())

	c := CompletionAccumulator{Completed: 27, Total: 30}
	assert.InDelta(t, 0.9, *c.Rate(), 1e-9)

	c.Merge(CompletionAccumulator{Completed: 30, Total: 30})
	assert.InDelta(t, 0.95, *c.Rate(), 1e-9)
}

func TestSortDishRates(t *testing.T) {
	dishes := []DishRate{
		{DishName: "Rice", WasteRate: 0.10},
		{DishName: "Soup", WasteRate: 0.35},
		{DishName: "Kimchi Stew", WasteRate: 0.35},
	}
	SortDishRates(dishes)

	assert.Equal(t, []string{"Kimchi Stew", "Soup", "Rice"},
		[]string{dishes[0].DishName, dishes[1].DishName, dishes[2].DishName})
}

func TestErrors(t *testing.T) {
	wrapped := fmt.Errorf("record tag: %w", &NotFoundError{Kind: "student", Key: "42"})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, "record tag: student 42 not found", wrapped.Error())

	assert.True(t, IsConflict(&ConflictError{Key: "k", Message: "m"}))
	assert.False(t, IsConflict(errors.New("plain")))
}

func TestLeftoverMeasurement_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       LeftoverMeasurement
		wantErr bool
	}{
		{"valid", LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: 0.1}, false},
		{"zero ok", LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: 0}, false},
		{"one ok", LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: 1}, false},
		{"above one", LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: 1.01}, true},
		{"negative", LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: -0.1}, true},
		{"missing dish", LeftoverMeasurement{Date: d("2024-03-04"), WasteRate: 0.1}, true},
		{"missing date", LeftoverMeasurement{DishName: "Rice", WasteRate: 0.1}, true},
		{"bad preference", LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: 0.1, PreferenceScore: ptr(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				assert.True(t, IsValidation(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStruct_FieldName(t *testing.T) {
	m := LeftoverMeasurement{Date: d("2024-03-04"), DishName: "Rice", WasteRate: 2}
	err := m.Validate()

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "wasteRate", ve.Field)
}

func TestStudent_BMIAndActive(t *testing.T) {
	s := Student{ID: 1, Name: "김민준", Grade: 1, ClassNum: 1, Number: 1}
	assert.Nil(t, s.BMI())

	s.Height, s.Weight = ptr(160), ptr(51.2)
	require.NotNil(t, s.BMI())
	assert.Equal(t, 20.0, *s.BMI())

	enrolled := d("2024-03-02")
	withdrawn := d("2024-07-01")
	s.EnrolledOn, s.WithdrawnOn = &enrolled, &withdrawn
	assert.False(t, s.ActiveOn(d("2024-03-01")))
	assert.True(t, s.ActiveOn(d("2024-03-02")))
	assert.True(t, s.ActiveOn(d("2024-06-30")))
	assert.False(t, s.ActiveOn(d("2024-07-01")))
}

func TestParseMenuName(t *testing.T) {
	assert.Equal(t, []string{"현미밥", "김치찌개", "배추김치"}, ParseMenuName(" 현미밥, 김치찌개 ,,배추김치"))
	assert.Empty(t, ParseMenuName(""))
}

func TestMenuItem(t *testing.T) {
	m := &MenuItem{
		MenuID: 1,
		Date:   d("2024-03-04"),
		Dishes: []string{"Rice", "Soup"},
		Nutrients: map[string]NutrientInfo{
			"Rice": {Kcal: 300, Carbo: 65},
			"Soup": {Kcal: 120, Sodium: 800},
		},
	}
	assert.True(t, m.HasDish("Soup"))
	assert.False(t, m.IsHoliday())

	total := m.TotalNutrient()
	require.NotNil(t, total)
	assert.Equal(t, 420.0, total.Kcal)
	assert.Equal(t, 800.0, total.Sodium)

	same := *m
	same.Holiday = []string{}
	assert.True(t, m.Equal(&same))

	changed := *m
	changed.Dishes = []string{"Rice"}
	assert.False(t, m.Equal(&changed))
}

func TestInventoryItem_Validate(t *testing.T) {
	base := InventoryItem{
		Date:            d("2024-03-04"),
		ProductName:     "쌀",
		Supplier:        "농협",
		Price:           decimal.RequireFromString("52000.00"),
		OrderedQuantity: 20,
		UsedQuantity:    18,
	}
	require.NoError(t, base.Validate())
	assert.InDelta(t, 0.9, *base.UsageRatio(), 1e-9)
	assert.True(t, base.LineTotal().Equal(decimal.RequireFromString("1040000")))

	over := base
	over.UsedQuantity = 21
	assert.True(t, IsValidation(over.Validate()))

	negative := base
	negative.Price = decimal.NewFromInt(-1)
	assert.True(t, IsValidation(negative.Validate()))

	unnamed := base
	unnamed.ProductName = ""
	assert.True(t, IsValidation(unnamed.Validate()))
}

func TestSatisfactionSummary_ToUpdate(t *testing.T) {
	s := SatisfactionSummary{
		MenuID:     7,
		MenuName:   "김치찌개",
		TotalVotes: 3,
		ScoreSum:   13,
		UpdatedAt:  time.Date(2024, 3, 4, 12, 30, 0, 0, time.UTC),
	}
	u := s.ToUpdate()
	assert.Equal(t, "4.3", u.AverageSatisfaction)
	assert.Equal(t, "2024-03-04T12:30:00Z", u.UpdatedAt)

	assert.Equal(t, "0.0", SatisfactionSummary{}.ToUpdate().AverageSatisfaction)
}
