// internal/handlers/storage/storage_handler.go
package storage

import (
	"context"
	"net/http"
	"strconv"

	"panel-service/internal/domain/listquery"
	"panel-service/internal/domain/storage"
	"panel-service/internal/middleware"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context, raw listquery.Raw) (*storage.ListResponse, error)
	Create(ctx context.Context, actorID int64, req *storage.StorageRequest) (*storage.StoragePlan, error)
	Update(ctx context.Context, actorID, id int64, req *storage.StorageRequest) (*storage.StoragePlan, error)
	Delete(ctx context.Context, actorID, id int64) error
}

type StorageHandler struct {
	storageService Service
}

func NewStorageHandler(storageService Service) *StorageHandler {
	return &StorageHandler{
		storageService: storageService,
	}
}

// ========== Listing ==========

func (h *StorageHandler) ListStorages(c *gin.Context) {
	var raw listquery.Raw
	if err := c.ShouldBindQuery(&raw); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.storageService.List(c.Request.Context(), raw)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "storage plans retrieved", result)
}

// ========== Mutations ==========

func (h *StorageHandler) CreateStorage(c *gin.Context) {
	var req storage.StorageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	plan, err := h.storageService.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "storage plan created successfully", plan)
}

func (h *StorageHandler) UpdateStorage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid storage plan ID", err)
		return
	}

	var req storage.StorageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	plan, err := h.storageService.Update(c.Request.Context(), actorID, id, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "storage plan updated successfully", plan)
}

func (h *StorageHandler) DeleteStorage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid storage plan ID", err)
		return
	}

	actorID, _ := middleware.GetIdentityID(c)
	if err := h.storageService.Delete(c.Request.Context(), actorID, id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "storage plan deleted successfully", nil)
}
