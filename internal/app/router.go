// internal/app/router.go
package app

import (
	"net/http"

	"panel-service/internal/domain/auth"
	"panel-service/internal/domain/dashboard"
	accessHandler "panel-service/internal/handlers/access"
	auditlogHandler "panel-service/internal/handlers/auditlog"
	authHandler "panel-service/internal/handlers/auth"
	backupHandler "panel-service/internal/handlers/backup"
	dashboardHandler "panel-service/internal/handlers/dashboard"
	domainHandler "panel-service/internal/handlers/domains"
	storageHandler "panel-service/internal/handlers/storage"
	wsHandler "panel-service/internal/handlers/websocket"
	"panel-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler      *authHandler.AuthHandler
	DomainHandler    *domainHandler.DomainHandler
	StorageHandler   *storageHandler.StorageHandler
	DashboardHandler *dashboardHandler.DashboardHandler
	BackupHandler    *backupHandler.BackupHandler
	AuditLogHandler  *auditlogHandler.AuditLogHandler
	AccessHandler    *accessHandler.AccessHandler
	WSHandler        *wsHandler.WebSocketHandler
	AuthMiddleware   *middleware.AuthMiddleware
	BackupLimiter    *middleware.RateLimiter
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")
	m := h.AuthMiddleware

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Auth ====================
	api.POST("/auth/login", h.AuthHandler.Login)

	authProtected := api.Group("/auth")
	authProtected.Use(m.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	protected := api.Group("")
	protected.Use(m.Auth())

	// ==================== Dashboards ====================
	protected.GET("/dashboard", h.DashboardHandler.Dashboard)
	for _, kind := range []dashboard.Kind{dashboard.KindSystem, dashboard.KindAdmin, dashboard.KindReseller} {
		protected.GET("/dashboard-"+string(kind), m.RequirePermission(dashboard.Permission(kind)), h.DashboardHandler.Kind(kind))
	}

	// ==================== Domains ====================
	domains := protected.Group("/domains")
	{
		domains.GET("", m.RequirePermission(auth.PermDomainsView), h.DomainHandler.ListDomains)
		domains.POST("", m.RequirePermission(auth.PermDomainsCreate), h.DomainHandler.CreateDomain)
		domains.PUT("/:id", m.RequirePermission(auth.PermDomainsEdit), h.DomainHandler.UpdateDomain)
		domains.DELETE("/:id", m.RequirePermission(auth.PermDomainsDelete), h.DomainHandler.DeleteDomain)
	}

	// ==================== Storage Plans ====================
	storages := protected.Group("/storages")
	{
		storages.GET("", m.RequirePermission(auth.PermStoragesView), h.StorageHandler.ListStorages)
		storages.POST("", m.RequirePermission(auth.PermStoragesCreate), h.StorageHandler.CreateStorage)
		storages.PUT("/:id", m.RequirePermission(auth.PermStoragesEdit), h.StorageHandler.UpdateStorage)
		storages.DELETE("/:id", m.RequirePermission(auth.PermStoragesDelete), h.StorageHandler.DeleteStorage)
	}

	// ==================== Backups ====================
	backups := protected.Group("/backup")
	{
		backups.GET("", m.RequirePermission(auth.PermBackupView), h.BackupHandler.ListBackups)
		backups.POST("/run", m.RequirePermission(auth.PermBackupRun), h.BackupLimiter.Middleware(), h.BackupHandler.RunBackup)
		backups.GET("/download/:file", m.RequirePermission(auth.PermBackupDownload), h.BackupHandler.DownloadBackup)
		backups.DELETE("/delete/:file", m.RequirePermission(auth.PermBackupDelete), h.BackupHandler.DeleteBackup)
	}

	// ==================== Audit Logs ====================
	protected.GET("/audit-logs", m.RequirePermission(auth.PermAuditLogsView), h.AuditLogHandler.ListAuditLogs)

	// ==================== Access Administration ====================
	users := protected.Group("/users")
	{
		users.GET("", m.RequirePermission(auth.PermUsersView), h.AccessHandler.ListUsers)
		users.POST("", m.RequirePermission(auth.PermUsersCreate), h.AccessHandler.CreateUser)
		users.PUT("/:id", m.RequirePermission(auth.PermUsersEdit), h.AccessHandler.UpdateUser)
		users.DELETE("/:id", m.RequirePermission(auth.PermUsersDelete), h.AccessHandler.DeleteUser)
		users.PUT("/:id/reset-password", m.RequirePermission(auth.PermUsersResetPassword), h.AccessHandler.ResetPassword)
	}

	roles := protected.Group("/roles")
	{
		roles.GET("", m.RequirePermission(auth.PermRolesView), h.AccessHandler.ListRoles)
		roles.POST("", m.RequirePermission(auth.PermRolesCreate), h.AccessHandler.CreateRole)
		roles.PUT("/:id", m.RequirePermission(auth.PermRolesEdit), h.AccessHandler.UpdateRole)
		roles.DELETE("/:id", m.RequirePermission(auth.PermRolesDelete), h.AccessHandler.DeleteRole)
	}

	permissions := protected.Group("/permissions")
	{
		permissions.GET("", m.RequirePermission(auth.PermPermissionsView), h.AccessHandler.ListPermissions)
		permissions.POST("", m.RequirePermission(auth.PermPermissionsCreate), h.AccessHandler.CreatePermission)
		permissions.PUT("/:id", m.RequirePermission(auth.PermPermissionsEdit), h.AccessHandler.UpdatePermission)
		permissions.DELETE("/:id", m.RequirePermission(auth.PermPermissionsDelete), h.AccessHandler.DeletePermission)
	}

	// ==================== WebSocket ====================
	protected.GET("/ws/activity", m.RequirePermission(auth.PermDashboardSystemView), h.WSHandler.HandleConnection)
}
