package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is one purchase/usage record of a food product
type InventoryItem struct {
	ID              uuid.UUID       `json:"id"`
	Date            time.Time       `json:"date"`
	ProductName     string          `json:"productName" validate:"required,max=200"`
	Supplier        string          `json:"supplier" validate:"max=200"`
	Price           decimal.Decimal `json:"price"`
	OrderedQuantity float64         `json:"orderedQuantity" validate:"gte=0"`
	UsedQuantity    float64         `json:"usedQuantity" validate:"gte=0"`
	Unit            string          `json:"unit,omitempty"`
	OrderUnit       string          `json:"orderUnit,omitempty"`
	UseUnit         string          `json:"useUnit,omitempty"`
}

// Validate checks the record before it is stored or exported
func (i *InventoryItem) Validate() error {
	if i.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required"}
	}
	if err := ValidateStruct(i); err != nil {
		return err
	}
	if i.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if i.UsedQuantity > i.OrderedQuantity {
		return &ValidationError{Field: "usedQuantity", Message: "used quantity exceeds ordered quantity"}
	}
	return nil
}

// UsageRatio is used/ordered; nil when nothing was ordered
func (i *InventoryItem) UsageRatio() *float64 {
	if i.OrderedQuantity == 0 {
		return nil
	}
	r := i.UsedQuantity / i.OrderedQuantity
	return &r
}

// LineTotal is price × ordered quantity
func (i *InventoryItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromFloat(i.OrderedQuantity))
}
