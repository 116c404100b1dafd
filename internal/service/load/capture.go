package load

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// CaptureResult summarizes one run of the daily load capture job.
type CaptureResult struct {
	FarmsScanned     int   `json:"farms_scanned"`
	PasturesScanned  int   `json:"pastures_scanned"`
	SnapshotsWritten int   `json:"snapshots_written"`
	Skipped          int   `json:"skipped"`
	Failed           int   `json:"failed"`
	DurationMs       int64 `json:"duration_ms"`
}

// CaptureDailyLoad walks every pasture of every farm, recomputes its
// current UG and persists a snapshot when the value moved by more than the
// configured epsilon since the last stored one. Snapshots are keyed by
// (pasture, calendar date in the reporting timezone) and written as
// upserts, so re-running the job on the same day never stacks duplicates.
//
// Per-pasture failures are logged and skipped; the walk keeps going. Only
// context cancellation stops the run early.
func (s *Service) CaptureDailyLoad(ctx context.Context, asOf time.Time) (CaptureResult, error) {
	started := time.Now()
	day := DateOnly(asOf, s.location)

	var result CaptureResult

	farms, err := s.store.ListFarms(ctx)
	if err != nil {
		result.DurationMs = time.Since(started).Milliseconds()
		return result, err
	}

	for _, farm := range farms {
		result.FarmsScanned++

		table, err := s.store.WeightOverrides(ctx, farm.ID)
		if err != nil {
			s.logger.Error("skipping farm, weight overrides unavailable",
				zap.String("farm_id", farm.ID.Hex()), zap.Error(err))
			result.Failed++
			continue
		}

		pastures, err := s.store.ListPastures(ctx, farm.ID)
		if err != nil {
			s.logger.Error("skipping farm, pastures unavailable",
				zap.String("farm_id", farm.ID.Hex()), zap.Error(err))
			result.Failed++
			continue
		}

		for _, pasture := range pastures {
			if err := ctx.Err(); err != nil {
				result.DurationMs = time.Since(started).Milliseconds()
				return result, err
			}

			result.PasturesScanned++

			wrote, err := s.capturePasture(ctx, farm.ID, pasture, table, day)
			if err != nil {
				s.logger.Error("failed capturing pasture load",
					zap.String("farm_id", farm.ID.Hex()),
					zap.String("pasture_id", pasture.ID.Hex()),
					zap.Error(err))
				result.Failed++
				continue
			}

			if wrote {
				result.SnapshotsWritten++
			} else {
				result.Skipped++
			}
		}
	}

	result.DurationMs = time.Since(started).Milliseconds()

	s.logger.Info("daily load capture finished",
		zap.Int("farms", result.FarmsScanned),
		zap.Int("pastures", result.PasturesScanned),
		zap.Int("written", result.SnapshotsWritten),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

func (s *Service) capturePasture(ctx context.Context, farmID primitive.ObjectID, pasture models.Pasture, table WeightTable, day time.Time) (bool, error) {
	current, err := s.aggregatePasture(ctx, pasture.ID, table)
	if err != nil {
		return false, err
	}

	prior, err := s.store.LatestSnapshotAtOrBefore(ctx, pasture.ID, day)
	if err != nil {
		return false, err
	}

	// No prior snapshot means bootstrap: always write. Otherwise only a
	// material change gets persisted; flat days stay sparse.
	if prior != nil && math.Abs(current-prior.TotalUG) <= s.epsilon {
		return false, nil
	}

	snapshot := models.LoadSnapshot{
		FarmID:    farmID,
		PastureID: pasture.ID,
		Date:      day,
		TotalUG:   current,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.UpsertSnapshot(ctx, snapshot); err != nil {
		return false, err
	}

	return true, nil
}

// DateOnly resolves the calendar date of t in loc, encoded as a UTC
// midnight instant. Snapshot dates and series days share this encoding so
// carry-forward comparisons are plain time comparisons.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
