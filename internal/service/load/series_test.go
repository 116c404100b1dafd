package load

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

func TestReconstructSeries_StepFunction(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 0)

	store.snapshots = append(store.snapshots,
		models.LoadSnapshot{FarmID: farm.ID, PastureID: pasture.ID, Date: day(2025, time.March, 1), TotalUG: 5.0},
		models.LoadSnapshot{FarmID: farm.ID, PastureID: pasture.ID, Date: day(2025, time.March, 10), TotalUG: 8.0},
	)

	svc := NewService(store, time.UTC, 0.01, nil)

	evolution, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 1), day(2025, time.March, 15))
	require.NoError(t, err)

	require.Len(t, evolution.Days, 15)
	assert.Equal(t, "2025-03-01", evolution.Days[0])
	assert.Equal(t, "2025-03-15", evolution.Days[14])

	require.Len(t, evolution.Pastures, 1)
	series := evolution.Pastures[0]
	for i := 0; i < 9; i++ {
		assert.Equal(t, 5.0, series.UG[i], "days 1-9 carry the first snapshot")
	}
	for i := 9; i < 15; i++ {
		assert.Equal(t, 8.0, series.UG[i], "days 10-15 carry the second snapshot")
	}
}

func TestReconstructSeries_ZeroBeforeFirstSnapshot(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 0)

	store.snapshots = append(store.snapshots,
		models.LoadSnapshot{FarmID: farm.ID, PastureID: pasture.ID, Date: day(2025, time.March, 5), TotalUG: 7.5},
	)

	svc := NewService(store, time.UTC, 0.01, nil)

	evolution, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 1), day(2025, time.March, 7))
	require.NoError(t, err)

	series := evolution.Pastures[0]
	assert.Equal(t, []float64{0, 0, 0, 0, 7.5, 7.5, 7.5}, series.UG)
}

func TestReconstructSeries_CarriesSnapshotFromBeforeRange(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 0)

	store.snapshots = append(store.snapshots,
		models.LoadSnapshot{FarmID: farm.ID, PastureID: pasture.ID, Date: day(2025, time.January, 15), TotalUG: 3.0},
	)

	svc := NewService(store, time.UTC, 0.01, nil)

	evolution, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 1), day(2025, time.March, 3))
	require.NoError(t, err)

	assert.Equal(t, []float64{3.0, 3.0, 3.0}, evolution.Pastures[0].UG)
}

func TestReconstructSeries_PerHectareAndFarmTotals(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	p1 := store.addPasture(farm.ID, "Potrero 1", 50)
	p2 := store.addPasture(farm.ID, "Potrero 2", 0)

	store.snapshots = append(store.snapshots,
		models.LoadSnapshot{FarmID: farm.ID, PastureID: p1.ID, Date: day(2025, time.March, 1), TotalUG: 10.0},
		models.LoadSnapshot{FarmID: farm.ID, PastureID: p2.ID, Date: day(2025, time.March, 1), TotalUG: 4.0},
	)

	svc := NewService(store, time.UTC, 0.01, nil)

	evolution, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 1), day(2025, time.March, 2))
	require.NoError(t, err)

	var p1Series, p2Series PastureSeries
	for _, series := range evolution.Pastures {
		switch series.PastureID {
		case p1.ID:
			p1Series = series
		case p2.ID:
			p2Series = series
		}
	}

	assert.Equal(t, []float64{0.2, 0.2}, p1Series.UGPerHectare)
	// Zero hectares never divides.
	assert.Equal(t, []float64{0, 0}, p2Series.UGPerHectare)

	assert.Equal(t, []float64{14.0, 14.0}, evolution.FarmUG)
	assert.Equal(t, []float64{0.28, 0.28}, evolution.FarmUGPerHectare)
}

func TestReconstructSeries_Deterministic(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")
	pasture := store.addPasture(farm.ID, "Potrero 1", 50)

	store.snapshots = append(store.snapshots,
		models.LoadSnapshot{FarmID: farm.ID, PastureID: pasture.ID, Date: day(2025, time.March, 3), TotalUG: 6.66},
		models.LoadSnapshot{FarmID: farm.ID, PastureID: pasture.ID, Date: day(2025, time.March, 8), TotalUG: 9.99},
	)

	svc := NewService(store, time.UTC, 0.01, nil)

	first, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 1), day(2025, time.March, 12))
	require.NoError(t, err)
	second, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 1), day(2025, time.March, 12))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReconstructSeries_RejectsInvertedRange(t *testing.T) {
	store := newFakeStore()
	farm := store.addFarm("La Esperanza")

	svc := NewService(store, time.UTC, 0.01, nil)

	_, err := svc.ReconstructSeries(context.Background(), farm.ID, day(2025, time.March, 10), day(2025, time.March, 1))
	assert.Error(t, err)
}
