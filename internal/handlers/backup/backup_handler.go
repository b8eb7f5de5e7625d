// internal/handlers/backup/backup_handler.go
package backup

import (
	"context"
	"net/http"

	"panel-service/internal/domain/backup"
	"panel-service/internal/middleware"
	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Manager interface {
	Run(ctx context.Context, actorID int64) (*backup.Archive, error)
	List(ctx context.Context) ([]backup.Archive, error)
	Resolve(name string) (string, error)
	Delete(ctx context.Context, actorID int64, name string) error
}

type BackupHandler struct {
	manager Manager
}

func NewBackupHandler(manager Manager) *BackupHandler {
	return &BackupHandler{
		manager: manager,
	}
}

func (h *BackupHandler) ListBackups(c *gin.Context) {
	archives, err := h.manager.List(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "backups retrieved", gin.H{"backups": archives})
}

func (h *BackupHandler) RunBackup(c *gin.Context) {
	actorID, _ := middleware.GetIdentityID(c)
	archive, err := h.manager.Run(c.Request.Context(), actorID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "backup created successfully", archive)
}

// DownloadBackup streams the archive as an attachment
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	name := c.Param("file")
	path, err := h.manager.Resolve(name)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.FileAttachment(path, name)
}

func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	actorID, _ := middleware.GetIdentityID(c)
	if err := h.manager.Delete(c.Request.Context(), actorID, c.Param("file")); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "backup deleted successfully", nil)
}
