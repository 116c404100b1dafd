package recategorization

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// fakeStore is an in-memory Store. WithTransaction snapshots the mutable
// collections and restores them when fn fails, mirroring a mongo session
// abort.
type fakeStore struct {
	farms    []models.Farm
	pastures map[primitive.ObjectID][]models.Pasture
	configs  map[primitive.ObjectID]*models.RecategorizationConfig
	lots     []models.AnimalLot
	events   []models.RecategorizationEvent

	failUpdateLots  map[primitive.ObjectID]bool
	failEventInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pastures:       make(map[primitive.ObjectID][]models.Pasture),
		configs:        make(map[primitive.ObjectID]*models.RecategorizationConfig),
		failUpdateLots: make(map[primitive.ObjectID]bool),
	}
}

func (f *fakeStore) addFarm(name string) models.Farm {
	farm := models.Farm{ID: primitive.NewObjectID(), Name: name}
	f.farms = append(f.farms, farm)
	return farm
}

func (f *fakeStore) addPasture(farm models.Farm, name string, hectares float64) models.Pasture {
	pasture := models.Pasture{ID: primitive.NewObjectID(), FarmID: farm.ID, Name: name, Hectares: hectares}
	f.pastures[farm.ID] = append(f.pastures[farm.ID], pasture)
	return pasture
}

func (f *fakeStore) addLot(farm models.Farm, pasture models.Pasture, category string, count int, intake time.Time) models.AnimalLot {
	lot := models.AnimalLot{
		ID:         primitive.NewObjectID(),
		FarmID:     farm.ID,
		PastureID:  pasture.ID,
		Category:   category,
		Count:      count,
		IntakeDate: intake,
	}
	f.lots = append(f.lots, lot)
	return lot
}

func (f *fakeStore) lotByID(id primitive.ObjectID) (models.AnimalLot, bool) {
	for _, lot := range f.lots {
		if lot.ID == id {
			return lot, true
		}
	}
	return models.AnimalLot{}, false
}

func (f *fakeStore) ListFarms(ctx context.Context) ([]models.Farm, error) {
	return f.farms, nil
}

func (f *fakeStore) ListPastures(ctx context.Context, farmID primitive.ObjectID) ([]models.Pasture, error) {
	return f.pastures[farmID], nil
}

func (f *fakeStore) GetRecategorizationConfig(ctx context.Context, farmID primitive.ObjectID) (*models.RecategorizationConfig, error) {
	return f.configs[farmID], nil
}

func (f *fakeStore) FindAnimalLots(ctx context.Context, farmID primitive.ObjectID, category string, filter models.BatchFilter) ([]models.AnimalLot, error) {
	var matched []models.AnimalLot
	for _, lot := range f.lots {
		if lot.FarmID != farmID || lot.Category != category {
			continue
		}
		if filter.IntakeBefore != nil && !lot.IntakeDate.Before(*filter.IntakeBefore) {
			continue
		}
		if filter.PastureID != nil && lot.PastureID != *filter.PastureID {
			continue
		}
		if filter.RodeoID != nil && (lot.RodeoID == nil || *lot.RodeoID != *filter.RodeoID) {
			continue
		}
		matched = append(matched, lot)
	}
	return matched, nil
}

func (f *fakeStore) UpdateAnimalLotCategory(ctx context.Context, lotID primitive.ObjectID, sourceCategory, destinationCategory string, intakeDate time.Time) error {
	if f.failUpdateLots[lotID] {
		return errors.New("write conflict")
	}
	for i, lot := range f.lots {
		if lot.ID == lotID && lot.Category == sourceCategory {
			f.lots[i].Category = destinationCategory
			f.lots[i].IntakeDate = intakeDate
			return nil
		}
	}
	return ErrLotNotFound
}

func (f *fakeStore) ReplaceAnimalLot(ctx context.Context, lot models.AnimalLot) error {
	for i, existing := range f.lots {
		if existing.ID == lot.ID {
			f.lots[i] = lot
			return nil
		}
	}
	return ErrLotNotFound
}

func (f *fakeStore) InsertAnimalLot(ctx context.Context, lot models.AnimalLot) error {
	if lot.ID.IsZero() {
		lot.ID = primitive.NewObjectID()
	}
	f.lots = append(f.lots, lot)
	return nil
}

func (f *fakeStore) InsertEvent(ctx context.Context, event models.RecategorizationEvent) error {
	if f.failEventInsert {
		return errors.New("insert event failed")
	}
	event.ID = primitive.NewObjectID()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	lotsBefore := append([]models.AnimalLot(nil), f.lots...)
	eventsBefore := append([]models.RecategorizationEvent(nil), f.events...)

	if err := fn(ctx); err != nil {
		f.lots = lotsBefore
		f.events = eventsBefore
		return err
	}
	return nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
