package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/config"
	"github.com/mamadbah2/cortinas/internal/syncer"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

const (
	syncTimeout   = 5 * time.Minute
	exportTimeout = 2 * time.Minute
)

// Syncer is the part of the synchronization engine the scheduler drives.
type Syncer interface {
	LoadFromCache(ctx context.Context)
	SyncAll(ctx context.Context) error
}

// Exporter writes the periodic budget export.
type Exporter interface {
	ExportBudgets(ctx context.Context) (int, error)
}

// Scheduler owns the periodic jobs of the process. Start and Stop bracket
// its lifetime; Stop cancels the jobs and waits for them.
type Scheduler struct {
	cron     *cron.Cron
	loc      *time.Location
	engine   Syncer
	exporter Exporter
	cfg      config.Config
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler instance. exporter may be nil.
func NewScheduler(cfg config.Config, engine Syncer, exporter Exporter, log *zap.Logger) *Scheduler {
	log = logger.OrNop(log)

	loc := time.Local
	if tz := cfg.Reporting.Timezone; tz != "" {
		if l, err := time.LoadLocation(tz); err != nil {
			log.Warn("unknown timezone, using local time", zap.String("timezone", tz), zap.Error(err))
		} else {
			loc = l
		}
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		loc:      loc,
		engine:   engine,
		exporter: exporter,
		cfg:      cfg,
		logger:   log,
	}
}

// Start loads the cache into memory, launches the initial sync and registers
// the periodic jobs. A stopped scheduler can be started again.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.loc))
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("starting scheduler", zap.String("sync_schedule", s.cfg.Sync.Schedule))

	s.engine.LoadFromCache(s.ctx)

	if _, err := s.cron.AddFunc(s.cfg.Sync.Schedule, s.runSync); err != nil {
		s.cancel()
		s.cancel = nil
		return fmt.Errorf("schedule sync %q: %w", s.cfg.Sync.Schedule, err)
	}

	if s.exporter != nil && s.cfg.Reporting.CronSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.runExport); err != nil {
			s.logger.Error("failed to schedule budget export", zap.Error(err))
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSync()
	}()

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.logger.Info("stopping scheduler")
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.wg.Wait()
	s.cancel = nil
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(s.ctx, syncTimeout)
	defer cancel()

	err := s.engine.SyncAll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, syncer.ErrSyncInProgress):
		s.logger.Debug("scheduled sync skipped, a sync is already running")
	default:
		s.logger.Warn("scheduled sync failed, keeping cached data", zap.Error(err))
	}
}

func (s *Scheduler) runExport() {
	ctx, cancel := context.WithTimeout(s.ctx, exportTimeout)
	defer cancel()

	n, err := s.exporter.ExportBudgets(ctx)
	if err != nil {
		s.logger.Error("budget export failed", zap.Error(err))
		return
	}
	s.logger.Info("budget export completed", zap.Int("rows", n))
}
