package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/config"
	"github.com/agrocampo/campo-backend/internal/service/load"
	"github.com/agrocampo/campo-backend/internal/service/recategorization"
)

// Scheduler manages the scheduled jobs: the daily load capture and the
// annual recategorization pass.
type Scheduler struct {
	cron     *cron.Cron
	loadSvc  *load.Service
	recatSvc *recategorization.Service
	cfg      config.Config
	location *time.Location
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. Cron expressions are
// evaluated in the configured reporting timezone so "daily" means the
// farm's day, not the host's.
func NewScheduler(cfg config.Config, loadSvc *load.Service, recatSvc *recategorization.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location := cfg.Location()
	c := cron.New(cron.WithLocation(location))

	return &Scheduler{
		cron:     c,
		loadSvc:  loadSvc,
		recatSvc: recatSvc,
		cfg:      cfg,
		location: location,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("capture_cron", s.cfg.Load.CaptureCron),
		zap.String("annual_cron", s.cfg.Recategorization.AnnualCron),
		zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.cfg.Load.CaptureCron, s.runDailyCapture); err != nil {
		s.logger.Error("failed to schedule daily load capture", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.Recategorization.AnnualCron, s.runAnnualRecategorization); err != nil {
		s.logger.Error("failed to schedule annual recategorization", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailyCapture() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.loadSvc.CaptureDailyLoad(ctx, time.Now().In(s.location))
	if err != nil {
		s.logger.Error("daily load capture aborted", zap.Error(err))
		return
	}

	s.logger.Info("daily load capture completed",
		zap.Int("pastures", result.PasturesScanned),
		zap.Int("written", result.SnapshotsWritten),
		zap.Int("failed", result.Failed))
}

func (s *Scheduler) runAnnualRecategorization() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := s.recatSvc.RunAnnualPass(ctx, time.Now().In(s.location))
	if errors.Is(err, recategorization.ErrNotTriggerDate) {
		// The cron entry only fires on January 1st; this guards replays
		// after clock or config changes.
		s.logger.Info("annual recategorization skipped, not january 1st")
		return
	}
	if err != nil {
		s.logger.Error("annual recategorization aborted", zap.Error(err))
		return
	}

	s.logger.Info("annual recategorization completed",
		zap.Int("farms", result.FarmsScanned),
		zap.Int("lots", result.LotsRecategorized),
		zap.Int("failed", result.Failed))
}
