package load

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureDailyLoad_BootstrapWritesFirstSnapshot(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 50)
	store.overrides[farm.ID] = WeightTable{"Vacas": 500}
	store.addLot(farm.ID, pasture.ID, "Vacas", 10)

	svc := NewService(store, time.UTC, 0.01, nil)

	result, err := svc.CaptureDailyLoad(context.Background(), day(2025, time.March, 10))
	require.NoError(t, err)

	assert.Equal(t, 1, result.PasturesScanned)
	assert.Equal(t, 1, result.SnapshotsWritten)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, 11.11, store.snapshots[0].TotalUG)
	assert.Equal(t, day(2025, time.March, 10), store.snapshots[0].Date)
	assert.Equal(t, pasture.ID, store.snapshots[0].PastureID)
}

func TestCaptureDailyLoad_SecondRunSameDayWritesNothing(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 50)
	store.addLot(farm.ID, pasture.ID, "Vacas", 10)

	svc := NewService(store, time.UTC, 0.01, nil)
	asOf := day(2025, time.March, 10)

	first, err := svc.CaptureDailyLoad(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SnapshotsWritten)

	second, err := svc.CaptureDailyLoad(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SnapshotsWritten)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, store.snapshots, 1)
}

func TestCaptureDailyLoad_SkipsBelowEpsilonChange(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 50)
	store.addLot(farm.ID, pasture.ID, "Vacas", 10)

	svc := NewService(store, time.UTC, 0.01, nil)

	_, err := svc.CaptureDailyLoad(context.Background(), day(2025, time.March, 10))
	require.NoError(t, err)

	// Next day, nothing changed: the series stays sparse.
	result, err := svc.CaptureDailyLoad(context.Background(), day(2025, time.March, 11))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SnapshotsWritten)
	assert.Len(t, store.snapshots, 1)
}

func TestCaptureDailyLoad_WritesOnMaterialChange(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 50)
	store.addLot(farm.ID, pasture.ID, "Vacas", 10)

	svc := NewService(store, time.UTC, 0.01, nil)

	_, err := svc.CaptureDailyLoad(context.Background(), day(2025, time.March, 10))
	require.NoError(t, err)

	store.addLot(farm.ID, pasture.ID, "Toros", 3)

	result, err := svc.CaptureDailyLoad(context.Background(), day(2025, time.March, 11))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SnapshotsWritten)

	require.Len(t, store.snapshots, 2)
	assert.Equal(t, 14.0, store.snapshots[1].TotalUG)
}

func TestCaptureDailyLoad_SameDayChangeOverwritesNotDuplicates(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 50)
	store.addLot(farm.ID, pasture.ID, "Vacas", 10)

	svc := NewService(store, time.UTC, 0.01, nil)
	asOf := day(2025, time.March, 10)

	_, err := svc.CaptureDailyLoad(context.Background(), asOf)
	require.NoError(t, err)

	store.addLot(farm.ID, pasture.ID, "Toros", 3)

	result, err := svc.CaptureDailyLoad(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SnapshotsWritten)

	// Still one row for the (pasture, date) key, holding the new value.
	require.Len(t, store.snapshots, 1)
	assert.Equal(t, 14.0, store.snapshots[0].TotalUG)
}

func TestCaptureDailyLoad_PastureFailureDoesNotAbortRun(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	broken := store.addPasture(farm.ID, "Potrero 1", 50)
	healthy := store.addPasture(farm.ID, "Potrero 2", 30)
	store.addLot(farm.ID, broken.ID, "Vacas", 10)
	store.addLot(farm.ID, healthy.ID, "Vacas", 5)
	store.failingPastures[broken.ID] = true

	svc := NewService(store, time.UTC, 0.01, nil)

	result, err := svc.CaptureDailyLoad(context.Background(), day(2025, time.March, 10))
	require.NoError(t, err)

	assert.Equal(t, 2, result.PasturesScanned)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.SnapshotsWritten)

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, healthy.ID, store.snapshots[0].PastureID)
}

func TestCaptureDailyLoad_CancelledContextStopsWalk(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	store.addPasture(farm.ID, "Potrero 1", 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(store, time.UTC, 0.01, nil)

	_, err := svc.CaptureDailyLoad(ctx, day(2025, time.March, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.snapshots)
}

func TestDateOnly_ResolvesCalendarDateInLocation(t *testing.T) {
	montevideo, err := time.LoadLocation("America/Montevideo")
	require.NoError(t, err)

	// 01:30 UTC on March 11 is still March 10 in Montevideo (UTC-3).
	instant := time.Date(2025, time.March, 11, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, day(2025, time.March, 10), DateOnly(instant, montevideo))
	assert.Equal(t, day(2025, time.March, 11), DateOnly(instant, time.UTC))
}
