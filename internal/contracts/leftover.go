package contracts

import "time"

// LeftoverMeasurement is the waste rate of one dish on one date.
// One row per (Date, DishName); re-submission overwrites.
type LeftoverMeasurement struct {
	Date            time.Time `json:"date"`
	DishName        string    `json:"dishName" validate:"required,max=100"`
	WasteRate       float64   `json:"wasteRate" validate:"gte=0,lte=1"`
	PreferenceScore *float64  `json:"preferenceScore,omitempty" validate:"omitempty,gte=0,lte=100"`
	Category        string    `json:"category,omitempty"`
}

// Validate checks the measurement before it reaches storage
func (m *LeftoverMeasurement) Validate() error {
	if m.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required"}
	}
	return ValidateStruct(m)
}

// LeftoverKey identifies a measurement slot
type LeftoverKey struct {
	Date     string
	DishName string
}

// Key returns the store key of m
func (m LeftoverMeasurement) Key() LeftoverKey {
	return LeftoverKey{Date: FormatDate(m.Date), DishName: m.DishName}
}
