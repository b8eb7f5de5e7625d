package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/listquery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	entries   []activity.Entry
	createErr error
	lastQuery listquery.Query
}

func (f *fakeRepo) Create(_ context.Context, e *activity.Entry) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = int64(len(f.entries) + 1)
	e.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeRepo) Latest(context.Context) (*activity.Entry, error) {
	if len(f.entries) == 0 {
		return nil, nil
	}
	e := f.entries[len(f.entries)-1]
	return &e, nil
}

func (f *fakeRepo) List(_ context.Context, q listquery.Query) ([]activity.Entry, int64, error) {
	f.lastQuery = q
	return f.entries, int64(len(f.entries)), nil
}

type fakeBroadcaster struct {
	sent []activity.Summary
}

func (f *fakeBroadcaster) BroadcastActivity(s activity.Summary) {
	f.sent = append(f.sent, s)
}

func TestRecord_PersistsAndBroadcasts(t *testing.T) {
	repo := &fakeRepo{}
	hub := &fakeBroadcaster{}
	svc := NewActivityService(repo, hub, zap.NewNop())

	err := svc.Record(context.Background(), &activity.Entry{Description: "backup created"})
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, activity.LogDefault, repo.entries[0].LogName)

	require.Len(t, hub.sent, 1)
	assert.Equal(t, "system", hub.sent[0].User)
	assert.Equal(t, "2026-01-02 03:04:05", hub.sent[0].Timestamp)
	assert.Equal(t, "success", hub.sent[0].Status)
}

func TestRecord_StoreFailureSkipsBroadcast(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	hub := &fakeBroadcaster{}
	svc := NewActivityService(repo, hub, zap.NewNop())

	err := svc.Record(context.Background(), &activity.Entry{Description: "x"})
	assert.Error(t, err)
	assert.Empty(t, hub.sent)
}

func TestList_FixedPageSize(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewActivityService(repo, nil, zap.NewNop())

	page, err := svc.List(context.Background(), listquery.Raw{PerPage: "100", Page: "3", Sort: "id", Order: "asc"})
	require.NoError(t, err)

	assert.Equal(t, 20, repo.lastQuery.PerPage)
	assert.Equal(t, 3, repo.lastQuery.Page)
	assert.Equal(t, listquery.Desc, repo.lastQuery.Order)
	assert.Equal(t, "created_at", repo.lastQuery.Sort)
	assert.NotNil(t, page.Data)
}

func TestLatest_Empty(t *testing.T) {
	svc := NewActivityService(&fakeRepo{}, nil, zap.NewNop())

	e, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e)
}
