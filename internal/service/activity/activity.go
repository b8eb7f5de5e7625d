// internal/service/activity/activity.go
package activity

import (
	"context"
	"fmt"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/listquery"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, e *activity.Entry) error
	Latest(ctx context.Context) (*activity.Entry, error)
	List(ctx context.Context, q listquery.Query) ([]activity.Entry, int64, error)
}

// Broadcaster pushes new entries to live subscribers
type Broadcaster interface {
	BroadcastActivity(summary activity.Summary)
}

type ActivityService struct {
	repo        Repository
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewActivityService(repo Repository, broadcaster Broadcaster, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Record appends e to the audit log and fans it out to live subscribers
func (s *ActivityService) Record(ctx context.Context, e *activity.Entry) error {
	if e.LogName == "" {
		e.LogName = activity.LogDefault
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	s.logger.Debug("activity recorded",
		zap.Int64("activity_id", e.ID),
		zap.String("log_name", e.LogName),
		zap.String("description", e.Description),
	)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastActivity(e.Summarize())
	}

	return nil
}

// List returns the audit log newest first, twenty per page
func (s *ActivityService) List(ctx context.Context, raw listquery.Raw) (*listquery.Page[activity.Entry], error) {
	q := listquery.AuditLogs.Normalize(raw)

	entries, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	page := listquery.NewPage(entries, q, total)
	return &page, nil
}

// Latest returns the newest entry, or nil when nothing was recorded yet
func (s *ActivityService) Latest(ctx context.Context) (*activity.Entry, error) {
	return s.repo.Latest(ctx)
}
