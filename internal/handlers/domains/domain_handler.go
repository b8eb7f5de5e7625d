// internal/handlers/domains/domain_handler.go
package domains

import (
	"context"
	"net/http"
	"strconv"

	"panel-service/internal/domain/domains"
	"panel-service/internal/domain/listquery"
	"panel-service/internal/middleware"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context, raw listquery.Raw) (*domains.ListResponse, error)
	Create(ctx context.Context, actorID int64, req *domains.DomainRequest) (*domains.Domain, error)
	Update(ctx context.Context, actorID, id int64, req *domains.DomainRequest) (*domains.Domain, error)
	Delete(ctx context.Context, actorID, id int64) error
}

type DomainHandler struct {
	domainService Service
}

func NewDomainHandler(domainService Service) *DomainHandler {
	return &DomainHandler{
		domainService: domainService,
	}
}

// ListDomains returns one page of domains plus the table-wide stats
func (h *DomainHandler) ListDomains(c *gin.Context) {
	var raw listquery.Raw
	if err := c.ShouldBindQuery(&raw); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.domainService.List(c.Request.Context(), raw)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "domains retrieved", result)
}

func (h *DomainHandler) CreateDomain(c *gin.Context) {
	var req domains.DomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	domain, err := h.domainService.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "domain created successfully", domain)
}

func (h *DomainHandler) UpdateDomain(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid domain ID", err)
		return
	}

	var req domains.DomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	domain, err := h.domainService.Update(c.Request.Context(), actorID, id, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "domain updated successfully", domain)
}

func (h *DomainHandler) DeleteDomain(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid domain ID", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	if err := h.domainService.Delete(c.Request.Context(), actorID, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "domain deleted successfully", nil)
}
