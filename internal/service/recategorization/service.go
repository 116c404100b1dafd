package recategorization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// ErrNotTriggerDate indicates the annual pass was invoked on a date other
// than January 1st.
var ErrNotTriggerDate = errors.New("annual recategorization only runs on january 1st")

// ErrLotNotFound indicates a referenced animal lot does not exist in the
// caller's farm.
var ErrLotNotFound = errors.New("animal lot not found")

// ErrSplitMismatch indicates a split's male+female parts do not sum to the
// original lot count.
var ErrSplitMismatch = errors.New("split counts do not match lot count")

// Store defines the persistence operations the recategorization engine
// requires. WithTransaction must run fn atomically: every write issued
// through the fn's context commits together or not at all.
type Store interface {
	ListFarms(ctx context.Context) ([]models.Farm, error)
	ListPastures(ctx context.Context, farmID primitive.ObjectID) ([]models.Pasture, error)
	GetRecategorizationConfig(ctx context.Context, farmID primitive.ObjectID) (*models.RecategorizationConfig, error)
	FindAnimalLots(ctx context.Context, farmID primitive.ObjectID, category string, filter models.BatchFilter) ([]models.AnimalLot, error)
	UpdateAnimalLotCategory(ctx context.Context, lotID primitive.ObjectID, sourceCategory, destinationCategory string, intakeDate time.Time) error
	ReplaceAnimalLot(ctx context.Context, lot models.AnimalLot) error
	InsertAnimalLot(ctx context.Context, lot models.AnimalLot) error
	InsertEvent(ctx context.Context, event models.RecategorizationEvent) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AnnualResult summarizes one automatic annual pass.
type AnnualResult struct {
	FarmsScanned      int   `json:"farms_scanned"`
	LotsRecategorized int   `json:"lots_recategorized"`
	AnimalsMoved      int   `json:"animals_moved"`
	Failed            int   `json:"failed"`
	DurationMs        int64 `json:"duration_ms"`
}

// Service applies age/sex category transitions to animal lots, either as
// the calendar-triggered annual pass or as admin-driven batch operations.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new recategorization service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// RunAnnualPass applies every enabled class's rules to every farm. It only
// runs when asOf is January 1st; the cutoff is January 1st of asOf's year,
// so lots that entered their category during the previous calendar year
// age in, and lots moved earlier in the same pass do not move again.
//
// Each lot's category rewrite and its audit event commit atomically as a
// pair; a failure on one lot or farm is logged and the pass continues.
func (s *Service) RunAnnualPass(ctx context.Context, asOf time.Time) (AnnualResult, error) {
	started := time.Now()

	var result AnnualResult

	if asOf.Month() != time.January || asOf.Day() != 1 {
		return result, ErrNotTriggerDate
	}

	cutoff := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	farms, err := s.store.ListFarms(ctx)
	if err != nil {
		result.DurationMs = time.Since(started).Milliseconds()
		return result, err
	}

	for _, farm := range farms {
		result.FarmsScanned++

		cfg, err := s.store.GetRecategorizationConfig(ctx, farm.ID)
		if err != nil {
			s.logger.Error("skipping farm, recategorization config unavailable",
				zap.String("farm_id", farm.ID.Hex()), zap.Error(err))
			result.Failed++
			continue
		}
		if cfg == nil {
			continue
		}

		var classes []models.LivestockClass
		if cfg.BovineActive {
			classes = append(classes, models.ClassBovine)
		}
		if cfg.OvineActive {
			classes = append(classes, models.ClassOvine)
		}

		for _, class := range classes {
			s.runAnnualClass(ctx, farm.ID, class, cutoff, asOf, &result)
		}
	}

	result.DurationMs = time.Since(started).Milliseconds()

	s.logger.Info("annual recategorization finished",
		zap.Int("farms", result.FarmsScanned),
		zap.Int("lots", result.LotsRecategorized),
		zap.Int("animals", result.AnimalsMoved),
		zap.Int("failed", result.Failed),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

func (s *Service) runAnnualClass(ctx context.Context, farmID primitive.ObjectID, class models.LivestockClass, cutoff, asOf time.Time, result *AnnualResult) {
	intakeDate := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	for _, rule := range RulesFor(class) {
		filter := models.BatchFilter{IntakeBefore: &cutoff}

		lots, err := s.store.FindAnimalLots(ctx, farmID, rule.Source, filter)
		if err != nil {
			s.logger.Error("failed loading lots for rule",
				zap.String("farm_id", farmID.Hex()),
				zap.String("source", rule.Source),
				zap.Error(err))
			result.Failed++
			continue
		}

		for _, lot := range lots {
			err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
				if err := s.store.UpdateAnimalLotCategory(txCtx, lot.ID, rule.Source, rule.Destination, intakeDate); err != nil {
					return err
				}
				return s.store.InsertEvent(txCtx, models.RecategorizationEvent{
					FarmID:              farmID,
					Type:                models.EventRecategorization,
					SourceCategory:      rule.Source,
					DestinationCategory: rule.Destination,
					Quantity:            lot.Count,
					PastureIDs:          []primitive.ObjectID{lot.PastureID},
					OccurredAt:          s.now().UTC(),
				})
			})
			if err != nil {
				s.logger.Error("failed recategorizing lot",
					zap.String("lot_id", lot.ID.Hex()),
					zap.String("source", rule.Source),
					zap.Error(err))
				result.Failed++
				continue
			}

			result.LotsRecategorized++
			result.AnimalsMoved += lot.Count
		}
	}
}

// Preview runs the batch rules dry: it returns the matching lots grouped
// by pasture with per-pasture and grand totals, mutating nothing.
func (s *Service) Preview(ctx context.Context, farmID primitive.ObjectID, rules []models.BatchRule) (*models.BatchPreview, error) {
	names, err := s.pastureNames(ctx, farmID)
	if err != nil {
		return nil, err
	}

	preview := &models.BatchPreview{Rules: make([]models.RulePreview, 0, len(rules))}

	for _, rule := range rules {
		lots, err := s.store.FindAnimalLots(ctx, farmID, rule.SourceCategory, rule.Filter)
		if err != nil {
			return nil, fmt.Errorf("find lots for %s: %w", rule.SourceCategory, err)
		}

		rulePreview := models.RulePreview{
			SourceCategory:      rule.SourceCategory,
			DestinationCategory: rule.DestinationCategory,
		}

		groupIndex := make(map[primitive.ObjectID]int)
		for _, lot := range lots {
			idx, ok := groupIndex[lot.PastureID]
			if !ok {
				idx = len(rulePreview.Groups)
				groupIndex[lot.PastureID] = idx
				rulePreview.Groups = append(rulePreview.Groups, models.PreviewGroup{
					PastureID:   lot.PastureID,
					PastureName: names[lot.PastureID],
				})
			}
			rulePreview.Groups[idx].Lots = append(rulePreview.Groups[idx].Lots, lot)
			rulePreview.Groups[idx].Count += lot.Count
			rulePreview.Total += lot.Count
		}

		preview.GrandTotal += rulePreview.Total
		preview.Rules = append(preview.Rules, rulePreview)
	}

	return preview, nil
}

// Commit re-runs the batch rules' queries and applies them in one
// transaction: every matched lot's category and intake date update and one
// summary event per rule is written, or nothing is.
func (s *Service) Commit(ctx context.Context, farmID primitive.ObjectID, rules []models.BatchRule) (*models.BatchResult, error) {
	batchID := uuid.NewString()
	occurredAt := s.now().UTC()
	intakeDate := dateOnlyUTC(occurredAt)

	result := &models.BatchResult{BatchID: batchID}

	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, rule := range rules {
			lots, err := s.store.FindAnimalLots(txCtx, farmID, rule.SourceCategory, rule.Filter)
			if err != nil {
				return fmt.Errorf("find lots for %s: %w", rule.SourceCategory, err)
			}

			var animals int
			var pastureIDs []primitive.ObjectID
			seen := make(map[primitive.ObjectID]bool)

			for _, lot := range lots {
				if err := s.store.UpdateAnimalLotCategory(txCtx, lot.ID, rule.SourceCategory, rule.DestinationCategory, intakeDate); err != nil {
					return fmt.Errorf("update lot %s: %w", lot.ID.Hex(), err)
				}
				animals += lot.Count
				if !seen[lot.PastureID] {
					seen[lot.PastureID] = true
					pastureIDs = append(pastureIDs, lot.PastureID)
				}
				result.LotsUpdated++
			}

			if len(lots) == 0 {
				continue
			}

			filter := rule.Filter
			if err := s.store.InsertEvent(txCtx, models.RecategorizationEvent{
				FarmID:              farmID,
				Type:                models.EventBatchRecategorization,
				BatchID:             batchID,
				SourceCategory:      rule.SourceCategory,
				DestinationCategory: rule.DestinationCategory,
				Quantity:            animals,
				PastureIDs:          pastureIDs,
				Filter:              &filter,
				OccurredAt:          occurredAt,
			}); err != nil {
				return fmt.Errorf("insert batch event: %w", err)
			}

			result.AnimalsMoved += animals
			result.EventsWritten++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Split divides a mixed-sex cohort category into explicit male and female
// categories. Every pasture's parts are validated against its lot count
// before any write; the whole request then commits in one transaction. The
// original lot is repurposed in place and a new lot is created for the
// other sex only when its count is positive.
func (s *Service) Split(ctx context.Context, farmID primitive.ObjectID, req models.SplitRequest) (*models.SplitResult, error) {
	batchID := uuid.NewString()
	occurredAt := s.now().UTC()
	intakeDate := dateOnlyUTC(occurredAt)

	type plannedSplit struct {
		lot   models.AnimalLot
		split models.PastureSplit
	}

	planned := make([]plannedSplit, 0, len(req.Splits))

	// Validation phase: every pasture must hold exactly one lot of the
	// source category whose count the parts sum to. Nothing is written
	// until the whole request checks out.
	for _, split := range req.Splits {
		if split.Males < 0 || split.Females < 0 {
			return nil, fmt.Errorf("pasture %s: negative split counts: %w", split.PastureID.Hex(), ErrSplitMismatch)
		}

		pastureID := split.PastureID
		lots, err := s.store.FindAnimalLots(ctx, farmID, req.SourceCategory, models.BatchFilter{PastureID: &pastureID})
		if err != nil {
			return nil, fmt.Errorf("find %s lots in pasture %s: %w", req.SourceCategory, pastureID.Hex(), err)
		}
		if len(lots) == 0 {
			return nil, fmt.Errorf("pasture %s has no %s lot: %w", pastureID.Hex(), req.SourceCategory, ErrLotNotFound)
		}

		lot := lots[0]
		if split.Males+split.Females != lot.Count {
			return nil, fmt.Errorf("pasture %s: %d males + %d females != %d animals: %w",
				pastureID.Hex(), split.Males, split.Females, lot.Count, ErrSplitMismatch)
		}

		planned = append(planned, plannedSplit{lot: lot, split: split})
	}

	result := &models.SplitResult{BatchID: batchID}

	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, p := range planned {
			keepCategory, keepCount := req.MaleCategory, p.split.Males
			newCategory, newCount := req.FemaleCategory, p.split.Females
			if keepCount == 0 && newCount > 0 {
				keepCategory, keepCount = req.FemaleCategory, p.split.Females
				newCount = 0
			}

			repurposed := p.lot
			repurposed.Category = keepCategory
			repurposed.Count = keepCount
			repurposed.IntakeDate = intakeDate
			if err := s.store.ReplaceAnimalLot(txCtx, repurposed); err != nil {
				return fmt.Errorf("repurpose lot %s: %w", p.lot.ID.Hex(), err)
			}

			if newCount > 0 {
				if err := s.store.InsertAnimalLot(txCtx, models.AnimalLot{
					FarmID:     farmID,
					PastureID:  p.lot.PastureID,
					RodeoID:    p.lot.RodeoID,
					Category:   newCategory,
					Count:      newCount,
					IntakeDate: intakeDate,
				}); err != nil {
					return fmt.Errorf("insert split lot in pasture %s: %w", p.lot.PastureID.Hex(), err)
				}
				result.LotsCreated++
			}

			if err := s.store.InsertEvent(txCtx, models.RecategorizationEvent{
				FarmID:              farmID,
				Type:                models.EventRecategorization,
				BatchID:             batchID,
				SourceCategory:      req.SourceCategory,
				DestinationCategory: fmt.Sprintf("%s/%s", req.MaleCategory, req.FemaleCategory),
				Quantity:            p.lot.Count,
				PastureIDs:          []primitive.ObjectID{p.lot.PastureID},
				OccurredAt:          occurredAt,
			}); err != nil {
				return fmt.Errorf("insert split event: %w", err)
			}

			result.PasturesSplit++
			result.EventsWritten++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) pastureNames(ctx context.Context, farmID primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	pastures, err := s.store.ListPastures(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list pastures: %w", err)
	}

	names := make(map[primitive.ObjectID]string, len(pastures))
	for _, pasture := range pastures {
		names[pasture.ID] = pasture.Name
	}
	return names, nil
}

func dateOnlyUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
