// internal/service/domains/domains.go
package domains

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/domains"
	"panel-service/internal/domain/listquery"
	xerrors "panel-service/internal/pkg/errors"
	"panel-service/internal/pkg/validation"

	"go.uber.org/zap"
)

// Repository is the store behind DomainService.
type Repository interface {
	Create(ctx context.Context, d *domains.Domain) error
	FindByID(ctx context.Context, id int64) (*domains.Domain, error)
	Update(ctx context.Context, d *domains.Domain) error
	Delete(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	List(ctx context.Context, q listquery.Query) ([]domains.Domain, int64, error)
	Stats(ctx context.Context) (*domains.Stats, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e *activity.Entry) error
}

const subjectType = "Domain"

type DomainService struct {
	repo     Repository
	activity ActivityRecorder
	logger   *zap.Logger
}

func NewDomainService(repo Repository, activity ActivityRecorder, logger *zap.Logger) *DomainService {
	return &DomainService{
		repo:     repo,
		activity: activity,
		logger:   logger,
	}
}

// List returns one page of domains, the normalized filters and whole-table stats
func (s *DomainService) List(ctx context.Context, raw listquery.Raw) (*domains.ListResponse, error) {
	q := listquery.Domains.Normalize(raw)

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &domains.ListResponse{
		Domains:             listquery.NewPage(items, q, total),
		Filters:             q,
		Stats:               *stats,
		SuggestedPrivileges: domains.SuggestedPrivileges,
	}, nil
}

// Create validates and inserts a domain
func (s *DomainService) Create(ctx context.Context, actorID int64, req *domains.DomainRequest) (*domains.Domain, error) {
	d := &domains.Domain{
		Name:      strings.TrimSpace(req.Name),
		Privilege: strings.TrimSpace(req.Privilege),
	}

	if err := s.validate(ctx, d, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, nameTaken()
		}
		s.logger.Error("failed to create domain", zap.Error(err))
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	s.logger.Info("domain created",
		zap.Int64("domain_id", d.ID),
		zap.String("name", d.Name),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, actorID, activity.EventCreated, d.ID, map[string]any{
		"attributes": attributes(d),
	})

	return d, nil
}

// Update replaces name and privilege of an existing domain
func (s *DomainService) Update(ctx context.Context, actorID, id int64, req *domains.DomainRequest) (*domains.Domain, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := attributes(d)

	d.Name = strings.TrimSpace(req.Name)
	d.Privilege = strings.TrimSpace(req.Privilege)

	if err := s.validate(ctx, d, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, nameTaken()
		}
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update domain", zap.Int64("domain_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update domain: %w", err)
	}

	s.logger.Info("domain updated",
		zap.Int64("domain_id", d.ID),
		zap.String("name", d.Name),
		zap.Int64("actor_id", actorID),
	)

	s.record(ctx, actorID, activity.EventUpdated, d.ID, map[string]any{
		"attributes": attributes(d),
		"old":        old,
	})

	return d, nil
}

// Delete removes a domain; a missing ID is always not found
func (s *DomainService) Delete(ctx context.Context, actorID, id int64) error {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete domain", zap.Int64("domain_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete domain: %w", err)
	}

	s.logger.Info("domain deleted", zap.Int64("domain_id", id), zap.Int64("actor_id", actorID))

	s.record(ctx, actorID, activity.EventDeleted, id, map[string]any{
		"old": attributes(d),
	})

	return nil
}

// ========== Helpers ==========

func (s *DomainService) validate(ctx context.Context, d *domains.Domain, excludeID int64) error {
	errs := xerrors.ValidationErrors{}

	if validation.RequiredString(errs, "name", d.Name, domains.NameMaxLength) {
		taken, err := s.repo.ExistsByName(ctx, d.Name, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check domain name: %w", err)
		}
		if taken {
			validation.Taken(errs, "name")
		}
	}

	validation.RequiredString(errs, "privilege", d.Privilege, domains.NameMaxLength)

	return errs.Err()
}

func (s *DomainService) record(ctx context.Context, actorID int64, event string, subjectID int64, props map[string]any) {
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
		s.logger.Warn("failed to record domain activity",
			zap.String("event", event),
			zap.Int64("domain_id", subjectID),
			zap.Error(err),
		)
	}
}

func nameTaken() error {
	errs := xerrors.ValidationErrors{}
	validation.Taken(errs, "name")
	return errs
}

func attributes(d *domains.Domain) map[string]any {
	return map[string]any{
		"name":      d.Name,
		"privilege": d.Privilege,
	}
}
