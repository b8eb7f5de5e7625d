// internal/service/backup/scheduler.go
package backup

import (
	"context"
	"errors"
	"fmt"

	"panel-service/internal/domain/backup"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner interface {
	Run(ctx context.Context, actorID int64) (*backup.Archive, error)
}

// Scheduler triggers backups on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string
	logger   *zap.Logger
}

func NewScheduler(runner Runner, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the job and starts the cron loop. An empty schedule disables it.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("backup scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("backup scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("backup scheduler stopped")
}

func (s *Scheduler) runOnce() {
	archive, err := s.runner.Run(context.Background(), 0)
	switch {
	case errors.Is(err, xerrors.ErrConflict):
		s.logger.Info("scheduled backup skipped, another run in progress")
	case err != nil:
		s.logger.Warn("scheduled backup failed", zap.Error(err))
	default:
		s.logger.Info("scheduled backup finished", zap.String("file", archive.Name))
	}
}
