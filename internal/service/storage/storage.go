// internal/service/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/listquery"
	"panel-service/internal/domain/storage"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/validation"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p *storage.StoragePlan) error
	FindByID(ctx context.Context, id int64) (*storage.StoragePlan, error)
	Update(ctx context.Context, p *storage.StoragePlan) error
	Delete(ctx context.Context, id int64) error
	ExistsBySize(ctx context.Context, size int64, excludeID int64) (bool, error)
	List(ctx context.Context, q listquery.Query) ([]storage.StoragePlan, int64, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e *activity.Entry) error
}

const subjectType = "StoragePlan"

type StorageService struct {
	repo     Repository
	activity ActivityRecorder
	logger   *zap.Logger
}

func NewStorageService(repo Repository, activity ActivityRecorder, logger *zap.Logger) *StorageService {
	return &StorageService{
		repo:     repo,
		activity: activity,
		logger:   logger,
	}
}

func (s *StorageService) List(ctx context.Context, raw listquery.Raw) (*storage.ListResponse, error) {
	q := listquery.Storages.Normalize(raw)

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &storage.ListResponse{
		Storages: listquery.NewPage(items, q, total),
		Filters:  q,
		Stats:    *stats,
	}, nil
}

func (s *StorageService) Create(ctx context.Context, actorID int64, req *storage.StorageRequest) (*storage.StoragePlan, error) {
	p := &storage.StoragePlan{}
	if err := s.apply(ctx, p, req, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, sizeTaken()
		}
		s.logger.Error("failed to create storage plan", zap.Error(err))
		return nil, fmt.Errorf("failed to create storage plan: %w", err)
	}

	s.logger.Info("storage plan created",
		zap.Int64("storage_id", p.ID),
		zap.Int64("size", p.Size),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, actorID, activity.EventCreated, p.ID, map[string]any{
		"attributes": attributes(p),
	})

	return p, nil
}

// Update replaces every field of an existing plan
func (s *StorageService) Update(ctx context.Context, actorID, id int64, req *storage.StorageRequest) (*storage.StoragePlan, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := attributes(p)

	if err := s.apply(ctx, p, req, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, sizeTaken()
		}
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update storage plan", zap.Int64("storage_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update storage plan: %w", err)
	}

	s.logger.Info("storage plan updated",
		zap.Int64("storage_id", p.ID),
		zap.Int64("size", p.Size),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, actorID, activity.EventUpdated, p.ID, map[string]any{
		"attributes": attributes(p),
		"old":        old,
	})

	return p, nil
}

func (s *StorageService) Delete(ctx context.Context, actorID, id int64) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete storage plan", zap.Int64("storage_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete storage plan: %w", err)
	}

	s.logger.Info("storage plan deleted", zap.Int64("storage_id", id), zap.Int64("actor_id", actorID))

	s.record(ctx, actorID, activity.EventDeleted, id, map[string]any{
		"old": attributes(p),
	})

	return nil
}

// ========== Helpers ==========

// apply validates req and copies it onto p only when every field passed
func (s *StorageService) apply(ctx context.Context, p *storage.StoragePlan, req *storage.StorageRequest, excludeID int64) error {
	errs := xerrors.ValidationErrors{}

	size, sizeOK := validation.IntAtLeast(errs, "size", req.Size, 1)
	if sizeOK {
		taken, err := s.repo.ExistsBySize(ctx, size, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check storage size: %w", err)
		}
		if taken {
			validation.Taken(errs, "size")
		}
	}

	adminAnnual, _ := validation.IntAtLeast(errs, "price_admin_annual", req.PriceAdminAnnual, 0)
	adminMonthly, _ := validation.IntAtLeast(errs, "price_admin_monthly", req.PriceAdminMonthly, 0)
	memberAnnual, _ := validation.IntAtLeast(errs, "price_member_annual", req.PriceMemberAnnual, 0)
	memberMonthly, _ := validation.IntAtLeast(errs, "price_member_monthly", req.PriceMemberMonthly, 0)

	if err := errs.Err(); err != nil {
		return err
	}

	p.Size = size
	p.PriceAdminAnnual = adminAnnual
	p.PriceAdminMonthly = adminMonthly
	p.PriceMemberAnnual = memberAnnual
	p.PriceMemberMonthly = memberMonthly
	return nil
}

func (s *StorageService) record(ctx context.Context, actorID int64, event string, subjectID int64, props map[string]any) {
	if s.activity == nil {
		return
	}

	entry := &activity.Entry{
		LogName:     activity.LogDefault,
		Description: event,
		Event:       event,
		SubjectType: subjectType,
		SubjectID:   &subjectID,
		Properties:  props,
	}
	if actorID > 0 {
		entry.CauserID = &actorID
	}

	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record storage activity",
			zap.String("event", event),
			zap.Int64("storage_id", subjectID),
			zap.Error(err),
		)
	}
}

func sizeTaken() error {
	errs := xerrors.ValidationErrors{}
	validation.Taken(errs, "size")
	return errs
}

func attributes(p *storage.StoragePlan) map[string]any {
	return map[string]any{
		"size":                 p.Size,
		"price_admin_annual":   p.PriceAdminAnnual,
		"price_admin_monthly":  p.PriceAdminMonthly,
		"price_member_annual":  p.PriceMemberAnnual,
		"price_member_monthly": p.PriceMemberMonthly,
	}
}
