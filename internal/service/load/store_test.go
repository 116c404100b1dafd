package load

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// fakeStore is an in-memory Store used by the service tests.
type fakeStore struct {
	farms     []models.Farm
	pastures  map[primitive.ObjectID][]models.Pasture
	lots      map[primitive.ObjectID][]models.AnimalLot
	overrides map[primitive.ObjectID]WeightTable
	snapshots []models.LoadSnapshot

	failingPastures map[primitive.ObjectID]bool
	upsertCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pastures:        make(map[primitive.ObjectID][]models.Pasture),
		lots:            make(map[primitive.ObjectID][]models.AnimalLot),
		overrides:       make(map[primitive.ObjectID]WeightTable),
		failingPastures: make(map[primitive.ObjectID]bool),
	}
}

func (f *fakeStore) addFarm(name string) models.Farm {
	farm := models.Farm{ID: primitive.NewObjectID(), Name: name}
	f.farms = append(f.farms, farm)
	return farm
}

func (f *fakeStore) addPasture(farmID primitive.ObjectID, name string, hectares float64) models.Pasture {
	pasture := models.Pasture{ID: primitive.NewObjectID(), FarmID: farmID, Name: name, Hectares: hectares}
	f.pastures[farmID] = append(f.pastures[farmID], pasture)
	return pasture
}

func (f *fakeStore) addLot(farmID, pastureID primitive.ObjectID, category string, count int) models.AnimalLot {
	lot := models.AnimalLot{
		ID:        primitive.NewObjectID(),
		FarmID:    farmID,
		PastureID: pastureID,
		Category:  category,
		Count:     count,
	}
	f.lots[pastureID] = append(f.lots[pastureID], lot)
	return lot
}

func (f *fakeStore) ListFarms(ctx context.Context) ([]models.Farm, error) {
	return f.farms, nil
}

func (f *fakeStore) GetFarm(ctx context.Context, farmID primitive.ObjectID) (*models.Farm, error) {
	for _, farm := range f.farms {
		if farm.ID == farmID {
			farm := farm
			return &farm, nil
		}
	}
	return nil, errors.New("farm not found")
}

func (f *fakeStore) ListPastures(ctx context.Context, farmID primitive.ObjectID) ([]models.Pasture, error) {
	return f.pastures[farmID], nil
}

func (f *fakeStore) GetPasture(ctx context.Context, farmID, pastureID primitive.ObjectID) (*models.Pasture, error) {
	for _, pasture := range f.pastures[farmID] {
		if pasture.ID == pastureID {
			pasture := pasture
			return &pasture, nil
		}
	}
	return nil, errors.New("pasture not found")
}

func (f *fakeStore) ListAnimalLotsByPasture(ctx context.Context, pastureID primitive.ObjectID) ([]models.AnimalLot, error) {
	if f.failingPastures[pastureID] {
		return nil, errors.New("transient data error")
	}
	return f.lots[pastureID], nil
}

func (f *fakeStore) WeightOverrides(ctx context.Context, farmID primitive.ObjectID) (WeightTable, error) {
	return f.overrides[farmID], nil
}

func (f *fakeStore) LatestSnapshotAtOrBefore(ctx context.Context, pastureID primitive.ObjectID, date time.Time) (*models.LoadSnapshot, error) {
	var latest *models.LoadSnapshot
	for i := range f.snapshots {
		snap := f.snapshots[i]
		if snap.PastureID != pastureID || snap.Date.After(date) {
			continue
		}
		if latest == nil || snap.Date.After(latest.Date) {
			latest = &f.snapshots[i]
		}
	}
	return latest, nil
}

func (f *fakeStore) UpsertSnapshot(ctx context.Context, snapshot models.LoadSnapshot) error {
	f.upsertCalls++
	for i := range f.snapshots {
		if f.snapshots[i].PastureID == snapshot.PastureID && f.snapshots[i].Date.Equal(snapshot.Date) {
			f.snapshots[i].TotalUG = snapshot.TotalUG
			return nil
		}
	}
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func (f *fakeStore) ListSnapshotsUntil(ctx context.Context, farmID primitive.ObjectID, until time.Time) ([]models.LoadSnapshot, error) {
	var out []models.LoadSnapshot
	for _, snap := range f.snapshots {
		if snap.FarmID == farmID && !snap.Date.After(until) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PastureID != out[j].PastureID {
			return out[i].PastureID.Hex() < out[j].PastureID.Hex()
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
