// internal/handlers/dashboard/dashboard_handler.go
package dashboard

import (
	"context"
	"net/http"

	"panel-service/internal/domain/dashboard"
	"panel-service/internal/middleware"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	ForPermissions(ctx context.Context, permissions []string) (*dashboard.View, error)
	Build(ctx context.Context, kind dashboard.Kind) (*dashboard.View, error)
}

type DashboardHandler struct {
	dashboardService Service
}

func NewDashboardHandler(dashboardService Service) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Dashboard picks the highest-priority dashboard the caller may see
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	view, err := h.dashboardService.ForPermissions(c.Request.Context(), middleware.GetPermissions(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "dashboard retrieved", view)
}

// Kind serves one dashboard directly; the route's permission guard gates it
func (h *DashboardHandler) Kind(kind dashboard.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := h.dashboardService.Build(c.Request.Context(), kind)
		if err != nil {
			response.HandleError(c, err)
			return
		}

		response.Success(c, http.StatusOK, "dashboard retrieved", view)
	}
}
