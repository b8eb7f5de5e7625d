package domains

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/domains"
	"panel-service/internal/domain/listquery"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	rows      []domains.Domain
	nextID    int64
	createErr error
	listErr   error
}

func (f *fakeRepo) Create(_ context.Context, d *domains.Domain) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	d.ID = f.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	f.rows = append(f.rows, *d)
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*domains.Domain, error) {
	for _, d := range f.rows {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, xerrors.NotFound("domain", id)
}

func (f *fakeRepo) Update(_ context.Context, d *domains.Domain) error {
	for i := range f.rows {
		if f.rows[i].ID == d.ID {
			d.CreatedAt = f.rows[i].CreatedAt
			d.UpdatedAt = time.Now()
			f.rows[i] = *d
			return nil
		}
	}
	return xerrors.NotFound("domain", d.ID)
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return xerrors.NotFound("domain", id)
}

func (f *fakeRepo) ExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, d := range f.rows {
		if d.Name == name && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) List(_ context.Context, q listquery.Query) ([]domains.Domain, int64, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	matched := []domains.Domain{}
	for _, d := range f.rows {
		if q.Search == "" || strings.Contains(strings.ToLower(d.Name), strings.ToLower(q.Search)) {
			matched = append(matched, d)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	start := q.Offset()
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + q.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeRepo) Stats(_ context.Context) (*domains.Stats, error) {
	stats := &domains.Stats{Total: int64(len(f.rows))}
	counts := map[string]int64{}
	order := []string{}
	for _, d := range f.rows {
		if counts[d.Privilege] == 0 {
			order = append(order, d.Privilege)
		}
		counts[d.Privilege]++
	}
	stats.TotalPrivileges = int64(len(counts))
	for _, p := range order {
		if stats.MostCommon == nil || counts[p] > stats.MostCommon.Count {
			stats.MostCommon = &domains.PrivilegeCount{Value: p, Count: counts[p]}
		}
	}
	return stats, nil
}

type fakeRecorder struct {
	entries []*activity.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e *activity.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func newService() (*DomainService, *fakeRepo, *fakeRecorder) {
	repo := &fakeRepo{}
	rec := &fakeRecorder{}
	return NewDomainService(repo, rec, zap.NewNop()), repo, rec
}

func TestCreate_Success(t *testing.T) {
	svc, _, rec := newService()
	ctx := context.Background()

	d, err := svc.Create(ctx, 7, &domains.DomainRequest{Name: "  example.com ", Privilege: "full access"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.ID)
	assert.Equal(t, "example.com", d.Name)

	list, err := svc.List(ctx, listquery.Raw{})
	require.NoError(t, err)
	require.Len(t, list.Domains.Data, 1)
	assert.Equal(t, "example.com", list.Domains.Data[0].Name)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, activity.EventCreated, rec.entries[0].Event)
	assert.Equal(t, "Domain", rec.entries[0].SubjectType)
	require.NotNil(t, rec.entries[0].CauserID)
	assert.Equal(t, int64(7), *rec.entries[0].CauserID)
}

func TestCreate_DuplicateName(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &domains.DomainRequest{Name: "example.com", Privilege: "restricted"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, &domains.DomainRequest{Name: "example.com", Privilege: "disabled"})
	verrs, ok := xerrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"The name has already been taken."}, verrs["name"])
	assert.False(t, verrs.Has("privilege"))
}

func TestCreate_ReportsEveryField(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Create(context.Background(), 1, &domains.DomainRequest{
		Name: strings.Repeat("a", 256),
	})
	verrs, ok := xerrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"The name may not be greater than 255 characters."}, verrs["name"])
	assert.Equal(t, []string{"The privilege field is required."}, verrs["privilege"])
	assert.Empty(t, repo.rows)
}

func TestCreate_NulByteIsFieldError(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Create(context.Background(), 1, &domains.DomainRequest{Name: "shop\x00.com", Privilege: "full\x00"})
	verrs, ok := xerrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"The name contains invalid characters."}, verrs["name"])
	assert.Equal(t, []string{"The privilege contains invalid characters."}, verrs["privilege"])
	assert.Empty(t, repo.rows)
}

func TestCreate_StoreRaceBecomesValidationError(t *testing.T) {
	svc, repo, _ := newService()
	repo.createErr = errors.Join(errors.New("unique violation"), xerrors.ErrDuplicateEntry)

	_, err := svc.Create(context.Background(), 1, &domains.DomainRequest{Name: "racy.io", Privilege: "restricted"})
	verrs, ok := xerrors.AsValidation(err)
	require.True(t, ok)
	assert.True(t, verrs.Has("name"))
}

func TestCreate_InfrastructureError(t *testing.T) {
	svc, repo, _ := newService()
	repo.createErr = errors.New("connection refused")

	_, err := svc.Create(context.Background(), 1, &domains.DomainRequest{Name: "down.io", Privilege: "restricted"})
	require.Error(t, err)
	_, isValidation := xerrors.AsValidation(err)
	assert.False(t, isValidation)
}

func TestUpdate_KeepsOwnName(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, &domains.DomainRequest{Name: "a.io", Privilege: "restricted"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, created.ID, &domains.DomainRequest{Name: "a.io", Privilege: "full access"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "full access", updated.Privilege)
}

func TestUpdate_ConflictsWithOther(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &domains.DomainRequest{Name: "a.io", Privilege: "restricted"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, 1, &domains.DomainRequest{Name: "b.io", Privilege: "restricted"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, b.ID, &domains.DomainRequest{Name: "a.io", Privilege: "restricted"})
	verrs, ok := xerrors.AsValidation(err)
	require.True(t, ok)
	assert.True(t, verrs.Has("name"))
}

func TestUpdate_MissingIsNotFoundBeforeValidation(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Update(context.Background(), 1, 99, &domains.DomainRequest{})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	_, isValidation := xerrors.AsValidation(err)
	assert.False(t, isValidation)
}

func TestDelete_RepeatIsNotFound(t *testing.T) {
	svc, _, rec := newService()
	ctx := context.Background()

	d, err := svc.Create(ctx, 1, &domains.DomainRequest{Name: "gone.io", Privilege: "disabled"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, d.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, d.ID), xerrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 1, d.ID), xerrors.ErrNotFound)
	assert.Len(t, rec.entries, 2)
}

func TestRecordFailureDoesNotFailMutation(t *testing.T) {
	svc, _, rec := newService()
	rec.err = errors.New("activity store down")

	_, err := svc.Create(context.Background(), 1, &domains.DomainRequest{Name: "ok.io", Privilege: "restricted"})
	assert.NoError(t, err)
}

func TestList_NormalizesAndPages(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	for _, n := range []string{"a.io", "b.io", "c.io"} {
		_, err := svc.Create(ctx, 1, &domains.DomainRequest{Name: n, Privilege: "restricted"})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, listquery.Raw{PerPage: "7", Sort: "bogus", Order: "sideways", Page: "9"})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Filters.PerPage)
	assert.Equal(t, "name", resp.Filters.Sort)
	assert.Equal(t, listquery.Asc, resp.Filters.Order)
	assert.Empty(t, resp.Domains.Data)
	assert.Equal(t, int64(3), resp.Domains.Total)
	assert.Equal(t, 1, resp.Domains.LastPage)
	assert.Equal(t, domains.SuggestedPrivileges, resp.SuggestedPrivileges)
}

func TestList_Stats(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	for _, r := range []domains.DomainRequest{
		{Name: "a.io", Privilege: "A"},
		{Name: "b.io", Privilege: "A"},
		{Name: "c.io", Privilege: "B"},
	} {
		r := r
		_, err := svc.Create(ctx, 1, &r)
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, listquery.Raw{Search: "b"})
	require.NoError(t, err)
	assert.Len(t, resp.Domains.Data, 1)
	assert.Equal(t, int64(3), resp.Stats.Total)
	assert.Equal(t, int64(2), resp.Stats.TotalPrivileges)
	require.NotNil(t, resp.Stats.MostCommon)
	assert.Equal(t, domains.PrivilegeCount{Value: "A", Count: 2}, *resp.Stats.MostCommon)
}

func TestList_StoreFailurePropagates(t *testing.T) {
	svc, repo, _ := newService()
	repo.listErr = errors.New("db down")

	_, err := svc.List(context.Background(), listquery.Raw{})
	assert.Error(t, err)
}
