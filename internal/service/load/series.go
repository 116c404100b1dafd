package load

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

const dateLayout = "2006-01-02"

// PastureSeries is the reconstructed daily load of one pasture.
type PastureSeries struct {
	PastureID    primitive.ObjectID `json:"pasture_id"`
	PastureName  string             `json:"pasture_name"`
	Hectares     float64            `json:"hectares"`
	UG           []float64          `json:"ug"`
	UGPerHectare []float64          `json:"ug_per_hectare"`
}

// Evolution is the dense daily series reconstructed from sparse snapshots
// for one farm over an inclusive date range.
type Evolution struct {
	Days             []string        `json:"days"`
	Pastures         []PastureSeries `json:"pastures"`
	FarmUG           []float64       `json:"farm_ug"`
	FarmUGPerHectare []float64       `json:"farm_ug_per_hectare"`
}

// ReconstructSeries rebuilds the daily UG series of every pasture of a
// farm over [from, to], carrying each snapshot's value forward until the
// next one. Days before a pasture's first snapshot reconstruct to 0.
// Read-only and deterministic: same snapshots in, same series out.
func (s *Service) ReconstructSeries(ctx context.Context, farmID primitive.ObjectID, from, to time.Time) (*Evolution, error) {
	fromDay := DateOnly(from, s.location)
	toDay := DateOnly(to, s.location)
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("invalid range: %s is after %s", fromDay.Format(dateLayout), toDay.Format(dateLayout))
	}

	pastures, err := s.store.ListPastures(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list pastures: %w", err)
	}

	// One query for the whole farm history up to the range end. Snapshots
	// before fromDay are needed too: they seed the carry-forward value.
	snapshots, err := s.store.ListSnapshotsUntil(ctx, farmID, toDay)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	byPasture := make(map[primitive.ObjectID][]models.LoadSnapshot, len(pastures))
	for _, snap := range snapshots {
		byPasture[snap.PastureID] = append(byPasture[snap.PastureID], snap)
	}

	days := enumerateDays(fromDay, toDay)

	evolution := &Evolution{
		Days:             make([]string, len(days)),
		Pastures:         make([]PastureSeries, 0, len(pastures)),
		FarmUG:           make([]float64, len(days)),
		FarmUGPerHectare: make([]float64, len(days)),
	}
	for i, day := range days {
		evolution.Days[i] = day.Format(dateLayout)
	}

	var farmHectares float64
	for _, pasture := range pastures {
		farmHectares += pasture.Hectares

		series := reconstructPasture(pasture, byPasture[pasture.ID], days)
		evolution.Pastures = append(evolution.Pastures, series)

		for i, ug := range series.UG {
			evolution.FarmUG[i] += ug
		}
	}

	for i := range days {
		evolution.FarmUG[i] = Round2(evolution.FarmUG[i])
		if farmHectares > 0 {
			evolution.FarmUGPerHectare[i] = Round2(evolution.FarmUG[i] / farmHectares)
		}
	}

	return evolution, nil
}

// reconstructPasture is the two-pointer carry-forward walk: snapshots come
// sorted by date ascending, days are enumerated ascending, so one pass over
// each suffices.
func reconstructPasture(pasture models.Pasture, snapshots []models.LoadSnapshot, days []time.Time) PastureSeries {
	series := PastureSeries{
		PastureID:    pasture.ID,
		PastureName:  pasture.Name,
		Hectares:     pasture.Hectares,
		UG:           make([]float64, len(days)),
		UGPerHectare: make([]float64, len(days)),
	}

	next := 0
	current := 0.0
	seeded := false

	for i, day := range days {
		for next < len(snapshots) && !snapshots[next].Date.After(day) {
			current = snapshots[next].TotalUG
			seeded = true
			next++
		}

		if seeded {
			series.UG[i] = current
			if pasture.Hectares > 0 {
				series.UGPerHectare[i] = Round2(current / pasture.Hectares)
			}
		}
	}

	return series
}

func enumerateDays(from, to time.Time) []time.Time {
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
