package load

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// Store defines the persistence operations the load service requires.
type Store interface {
	ListFarms(ctx context.Context) ([]models.Farm, error)
	GetFarm(ctx context.Context, farmID primitive.ObjectID) (*models.Farm, error)
	ListPastures(ctx context.Context, farmID primitive.ObjectID) ([]models.Pasture, error)
	GetPasture(ctx context.Context, farmID, pastureID primitive.ObjectID) (*models.Pasture, error)
	ListAnimalLotsByPasture(ctx context.Context, pastureID primitive.ObjectID) ([]models.AnimalLot, error)
	WeightOverrides(ctx context.Context, farmID primitive.ObjectID) (WeightTable, error)
	LatestSnapshotAtOrBefore(ctx context.Context, pastureID primitive.ObjectID, date time.Time) (*models.LoadSnapshot, error)
	UpsertSnapshot(ctx context.Context, snapshot models.LoadSnapshot) error
	ListSnapshotsUntil(ctx context.Context, farmID primitive.ObjectID, until time.Time) ([]models.LoadSnapshot, error)
}

// Service computes grazing-load figures: current aggregates, daily
// snapshot capture and historical series reconstruction.
type Service struct {
	store    Store
	location *time.Location
	epsilon  float64
	logger   *zap.Logger
}

// NewService wires a new load service instance. The location is the farm
// reporting timezone used to resolve calendar dates; epsilon is the minimum
// UG change that triggers a new snapshot.
func NewService(store Store, location *time.Location, epsilon float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{store: store, location: location, epsilon: epsilon, logger: logger}
}

// AggregateUG computes the current total Animal Units held by one pasture.
// A pasture without animal lots aggregates to 0.
func (s *Service) AggregateUG(ctx context.Context, farmID, pastureID primitive.ObjectID) (float64, error) {
	table, err := s.store.WeightOverrides(ctx, farmID)
	if err != nil {
		return 0, fmt.Errorf("load weight overrides: %w", err)
	}

	return s.aggregatePasture(ctx, pastureID, table)
}

// AggregateFarmUG sums the current Animal Units across every pasture of a farm.
func (s *Service) AggregateFarmUG(ctx context.Context, farmID primitive.ObjectID) (float64, error) {
	table, err := s.store.WeightOverrides(ctx, farmID)
	if err != nil {
		return 0, fmt.Errorf("load weight overrides: %w", err)
	}

	pastures, err := s.store.ListPastures(ctx, farmID)
	if err != nil {
		return 0, fmt.Errorf("list pastures: %w", err)
	}

	var total float64
	for _, pasture := range pastures {
		ug, err := s.aggregatePasture(ctx, pasture.ID, table)
		if err != nil {
			return 0, err
		}
		total += ug
	}

	return Round2(total), nil
}

func (s *Service) aggregatePasture(ctx context.Context, pastureID primitive.ObjectID, table WeightTable) (float64, error) {
	lots, err := s.store.ListAnimalLotsByPasture(ctx, pastureID)
	if err != nil {
		return 0, fmt.Errorf("list animal lots for pasture %s: %w", pastureID.Hex(), err)
	}

	var total float64
	for _, lot := range lots {
		total += UnitsFor(lot.Category, lot.Count, table)
	}

	return Round2(total), nil
}
