package auditlog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/listquery"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct{ lastRaw listquery.Raw }

func (f *fakeService) List(_ context.Context, raw listquery.Raw) (*listquery.Page[activity.Entry], error) {
	f.lastRaw = raw
	q := listquery.AuditLogs.Normalize(raw)
	page := listquery.NewPage([]activity.Entry{{ID: 1, Description: "created"}}, q, 41)
	return &page, nil
}

func TestListAuditLogs_OnlyPageHonoured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{}
	r := gin.New()
	r.GET("/audit-logs", NewAuditLogHandler(svc).ListAuditLogs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs?page=3&per_page=100&sort=id", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, listquery.Raw{Page: "3"}, svc.lastRaw)
	assert.Contains(t, w.Body.String(), `"per_page":20`)
	assert.Contains(t, w.Body.String(), `"last_page":3`)
	assert.Contains(t, w.Body.String(), `"from":41`)
}
