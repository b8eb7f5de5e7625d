// internal/handlers/auditlog/auditlog_handler.go
package auditlog

import (
	"context"
	"net/http"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/listquery"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context, raw listquery.Raw) (*listquery.Page[activity.Entry], error)
}

type AuditLogHandler struct {
	activityService Service
}

func NewAuditLogHandler(activityService Service) *AuditLogHandler {
	return &AuditLogHandler{
		activityService: activityService,
	}
}

// ListAuditLogs returns 20 entries per page, newest first. Only ?page is honoured.
func (h *AuditLogHandler) ListAuditLogs(c *gin.Context) {
	raw := listquery.Raw{Page: c.Query("page")}

	page, err := h.activityService.List(c.Request.Context(), raw)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "audit logs retrieved", gin.H{"activities": page})
}
