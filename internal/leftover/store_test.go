package leftover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newStore() *Store {
	return NewStore(NewMemoryRepository(), logger.Nop())
}

func TestStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	require.NoError(t, store.UpsertMeasurement(ctx, contracts.LeftoverMeasurement{Date: day, DishName: "김치찌개", WasteRate: 0.5}))
	require.NoError(t, store.UpsertMeasurement(ctx, contracts.LeftoverMeasurement{Date: day.Add(13 * time.Hour), DishName: "김치찌개", WasteRate: 0.35}))

	got, err := store.QueryMeasurements(ctx, contracts.SingleDay(day), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.35, got[0].WasteRate)
}

func TestStore_RejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	for _, rate := range []float64{-0.1, 1.2} {
		err := store.UpsertMeasurement(ctx, contracts.LeftoverMeasurement{Date: day, DishName: "밥", WasteRate: rate})
		assert.True(t, contracts.IsValidation(err), "rate %v", rate)
	}

	got, err := store.QueryMeasurements(ctx, contracts.SingleDay(day), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_BoundsAreValid(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	require.NoError(t, store.UpsertMeasurement(ctx, contracts.LeftoverMeasurement{Date: day, DishName: "밥", WasteRate: 0}))
	require.NoError(t, store.UpsertMeasurement(ctx, contracts.LeftoverMeasurement{Date: day, DishName: "국", WasteRate: 1}))
}

func TestStore_BatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	err := store.UpsertMeasurements(ctx, []contracts.LeftoverMeasurement{
		{Date: day, DishName: "밥", WasteRate: 0.1},
		{Date: day, DishName: "", WasteRate: 0.2},
	})
	assert.True(t, contracts.IsValidation(err))

	got, err := store.QueryMeasurements(ctx, contracts.SingleDay(day), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_NotifiesTouchedDatesOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	var got []time.Time
	store.Subscribe(contracts.ChangeListenerFunc(func(ctx context.Context, dates ...time.Time) {
		got = append(got, dates...)
	}))

	next := day.AddDate(0, 0, 1)
	require.NoError(t, store.UpsertMeasurements(ctx, []contracts.LeftoverMeasurement{
		{Date: day, DishName: "밥", WasteRate: 0.1},
		{Date: day, DishName: "국", WasteRate: 0.2},
		{Date: next, DishName: "밥", WasteRate: 0.3},
	}))
	assert.Equal(t, []time.Time{day, next}, got)
}

// partialRepository writes the first row of a batch and then fails, like a
// commit that landed but lost its acknowledgement
type partialRepository struct {
	*MemoryRepository
}

func (r partialRepository) UpsertBatch(ctx context.Context, batch []contracts.LeftoverMeasurement) error {
	if err := r.MemoryRepository.UpsertBatch(ctx, batch[:1]); err != nil {
		return err
	}
	return errors.New("connection reset")
}

func TestStore_FailedBatchStillNotifies(t *testing.T) {
	ctx := context.Background()
	repo := partialRepository{NewMemoryRepository()}
	store := NewStore(repo, logger.Nop())

	var got []time.Time
	store.Subscribe(contracts.ChangeListenerFunc(func(ctx context.Context, dates ...time.Time) {
		got = append(got, dates...)
	}))

	next := day.AddDate(0, 0, 1)
	err := store.UpsertMeasurements(ctx, []contracts.LeftoverMeasurement{
		{Date: day, DishName: "밥", WasteRate: 0.9},
		{Date: next, DishName: "국", WasteRate: 0.5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, []time.Time{day, next}, got)

	stored, err := store.QueryMeasurements(ctx, contracts.WeekOf(day), nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 0.9, stored[0].WasteRate)
}

func TestStore_EmptyBatchIsNoop(t *testing.T) {
	store := newStore()
	calls := 0
	store.Subscribe(contracts.ChangeListenerFunc(func(ctx context.Context, dates ...time.Time) {
		calls++
	}))

	require.NoError(t, store.UpsertMeasurements(context.Background(), nil))
	assert.Zero(t, calls)
}

func TestMemoryRepository_UpsertBatchCancelled(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.UpsertBatch(ctx, []contracts.LeftoverMeasurement{{Date: day, DishName: "밥", WasteRate: 0.1}})
	assert.ErrorIs(t, err, context.Canceled)

	got, err := repo.Query(context.Background(), contracts.SingleDay(day), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_QueryFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	pref := 80.0

	require.NoError(t, store.UpsertMeasurements(ctx, []contracts.LeftoverMeasurement{
		{Date: day.AddDate(0, 0, 1), DishName: "밥", WasteRate: 0.1},
		{Date: day, DishName: "국", WasteRate: 0.2, PreferenceScore: &pref, Category: " 국류 "},
		{Date: day, DishName: "밥", WasteRate: 0.3},
	}))

	all, err := store.QueryMeasurements(ctx, contracts.WeekOf(day), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "국", all[0].DishName)
	assert.Equal(t, "국류", all[0].Category)
	assert.Equal(t, "밥", all[1].DishName)
	assert.Equal(t, day.AddDate(0, 0, 1), all[2].Date)

	rice, err := store.QueryMeasurements(ctx, contracts.WeekOf(day), []string{"밥"})
	require.NoError(t, err)
	assert.Len(t, rice, 2)
}
