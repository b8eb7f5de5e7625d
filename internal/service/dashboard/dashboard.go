// internal/service/dashboard/dashboard.go
package dashboard

import (
	"context"
	"fmt"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	"panel-service/internal/domain/dashboard"
	xerrors "panel-service/internal/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AccessCounter interface {
	CountUsers(ctx context.Context) (int64, error)
	CountRoles(ctx context.Context) (int64, error)
	CountPermissions(ctx context.Context) (int64, error)
	CountUsersWithRole(ctx context.Context, role string) (int64, error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type ActivityReader interface {
	Latest(ctx context.Context) (*activity.Entry, error)
}

type DashboardService struct {
	access   AccessCounter
	domains  Counter
	storages Counter
	activity ActivityReader
	logger   *zap.Logger
}

func NewDashboardService(
	access AccessCounter,
	domains Counter,
	storages Counter,
	activity ActivityReader,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		access:   access,
		domains:  domains,
		storages: storages,
		activity: activity,
		logger:   logger,
	}
}

// ForPermissions resolves the caller's dashboard and builds it. A caller
// holding none of the dashboard capabilities gets ErrForbidden.
func (s *DashboardService) ForPermissions(ctx context.Context, permissions []string) (*dashboard.View, error) {
	kind, ok := dashboard.Resolve(permissions)
	if !ok {
		return nil, xerrors.ErrForbidden
	}
	return s.Build(ctx, kind)
}

func (s *DashboardService) Build(ctx context.Context, kind dashboard.Kind) (*dashboard.View, error) {
	view := &dashboard.View{Kind: kind}

	switch kind {
	case dashboard.KindSystem:
		stats, err := s.systemStats(ctx)
		if err != nil {
			return nil, err
		}
		view.System = stats
	case dashboard.KindAdmin:
		stats, err := s.adminStats(ctx)
		if err != nil {
			return nil, err
		}
		view.Admin = stats
	case dashboard.KindReseller:
		view.Reseller = &dashboard.ResellerStats{}
	default:
		return nil, fmt.Errorf("unknown dashboard %q: %w", kind, xerrors.ErrInvalidInput)
	}

	return view, nil
}

func (s *DashboardService) systemStats(ctx context.Context) (*dashboard.SystemStats, error) {
	stats := &dashboard.SystemStats{
		SystemHealth:     dashboard.HealthOnline,
		RecentActivities: []activity.Summary{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.access.CountUsers(gctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.access.CountRoles(gctx)
		stats.TotalRoles = n
		return err
	})
	g.Go(func() error {
		n, err := s.access.CountPermissions(gctx)
		stats.TotalPermissions = n
		return err
	})

	var latest *activity.Entry
	g.Go(func() error {
		e, err := s.activity.Latest(gctx)
		latest = e
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build system dashboard", zap.Error(err))
		return nil, fmt.Errorf("failed to build system dashboard: %w", err)
	}

	if latest != nil {
		stats.RecentActivities = append(stats.RecentActivities, latest.Summarize())
	}

	return stats, nil
}

func (s *DashboardService) adminStats(ctx context.Context) (*dashboard.AdminStats, error) {
	domains, err := s.domains.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count domains: %w", err)
	}

	storages, err := s.storages.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count storage plans: %w", err)
	}

	customers, err := s.access.CountUsersWithRole(ctx, auth.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	return &dashboard.AdminStats{
		TotalDomains:   domains,
		TotalStorages:  storages,
		TotalCustomers: customers,
	}, nil
}
