package inventory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func item(name string, date time.Time, price string, ordered, used float64) *contracts.InventoryItem {
	return &contracts.InventoryItem{
		Date:            date,
		ProductName:     name,
		Supplier:        "한빛식자재",
		Price:           decimal.RequireFromString(price),
		OrderedQuantity: ordered,
		UsedQuantity:    used,
		Unit:            "kg",
	}
}

func TestService_RecordAssignsID(t *testing.T) {
	svc := NewService(NewMemoryRepository(), logger.Nop())

	got, err := svc.Record(context.Background(), item(" 쌀 ", day.Add(9*time.Hour), "2500.50", 20, 18))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "쌀", got.ProductName)
	assert.Equal(t, day, got.Date)
}

func TestService_RecordValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), logger.Nop())
	ctx := context.Background()

	tests := []struct {
		name string
		item *contracts.InventoryItem
	}{
		{"missing product", item("", day, "1", 1, 1)},
		{"negative price", item("쌀", day, "-1", 1, 1)},
		{"used exceeds ordered", item("쌀", day, "1", 1, 2)},
		{"missing date", item("쌀", time.Time{}, "1", 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tt.item)
			assert.True(t, contracts.IsValidation(err))
		})
	}

	report, err := svc.Month(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
}

func TestService_MonthReport(t *testing.T) {
	svc := NewService(NewMemoryRepository(), logger.Nop())
	ctx := context.Background()

	for _, it := range []*contracts.InventoryItem{
		item("쌀", day, "2500.50", 20, 18),
		item("감자", day, "1200", 5, 5),
		item("양파", day.AddDate(0, 1, 0), "900", 3, 1),
	} {
		_, err := svc.Record(ctx, it)
		require.NoError(t, err)
	}

	report, err := svc.Month(ctx, 2024, time.March)
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "감자", report.Items[0].ProductName)
	assert.True(t, decimal.RequireFromString("56010").Equal(report.Total), report.Total.String())

	ratio := report.Items[1].UsageRatio()
	require.NotNil(t, ratio)
	assert.InDelta(t, 0.9, *ratio, 1e-9)

	raw, err := json.Marshal(report.Items[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":"1200"`)

	_, err = svc.Month(ctx, 2024, 13)
	assert.True(t, contracts.IsValidation(err))
}
