// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"panel-service/internal/config"
	"panel-service/internal/db"
	accessHandler "panel-service/internal/handlers/access"
	auditlogHandler "panel-service/internal/handlers/auditlog"
	authHandler "panel-service/internal/handlers/auth"
	backupHandler "panel-service/internal/handlers/backup"
	dashboardHandler "panel-service/internal/handlers/dashboard"
	domainHandler "panel-service/internal/handlers/domains"
	storageHandler "panel-service/internal/handlers/storage"
	wsHandler "panel-service/internal/handlers/websocket"
	"panel-service/internal/middleware"
	"panel-service/internal/pkg/jwt"
	"panel-service/internal/pkg/session"
	"panel-service/internal/repository/postgres"
	accessUsecase "panel-service/internal/service/access"
	authUsecase "panel-service/internal/service/auth"
	backupUsecase "panel-service/internal/service/backup"
	dashboardUsecase "panel-service/internal/service/dashboard"
	domainUsecase "panel-service/internal/service/domains"
	storageUsecase "panel-service/internal/service/storage"
	"panel-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Start serves HTTP until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	// ----- PostgreSQL -----
	pool, err := OpenDatabase(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	s.logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()
	s.logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient, s.logger)
	loginLimiter := session.NewRateLimiter(redisClient)

	// ----- WebSocket Hub -----
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(s.logger)
	go hub.Run(hubCtx)

	// ----- Repositories -----
	authRepo := postgres.NewAuthRepository(pool)
	domainRepo := postgres.NewDomainRepository(pool)
	storageRepo := postgres.NewStorageRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)

	// ----- Services (Usecases) -----
	activityService := NewActivityService(pool, hub, s.logger)
	authService := authUsecase.NewAuthService(
		authRepo,
		jwtManager,
		sessionManager,
		loginLimiter,
		activityService,
		s.logger,
	)
	accessService := accessUsecase.NewAccessService(authRepo, sessionManager, activityService, s.logger)
	domainService := domainUsecase.NewDomainService(domainRepo, activityService, s.logger)
	storageService := storageUsecase.NewStorageService(storageRepo, activityService, s.logger)
	dashboardService := dashboardUsecase.NewDashboardService(authRepo, domainRepo, storageRepo, activityRepo, s.logger)
	backupManager := NewBackupManager(s.cfg, activityService, s.logger)

	// ----- Scheduled backups -----
	scheduler := backupUsecase.NewScheduler(backupManager, s.cfg.Backup.Schedule, s.logger)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:      authHandler.NewAuthHandler(authService, s.logger),
		DomainHandler:    domainHandler.NewDomainHandler(domainService),
		StorageHandler:   storageHandler.NewStorageHandler(storageService),
		DashboardHandler: dashboardHandler.NewDashboardHandler(dashboardService),
		BackupHandler:    backupHandler.NewBackupHandler(backupManager),
		AuditLogHandler:  auditlogHandler.NewAuditLogHandler(activityService),
		AccessHandler:    accessHandler.NewAccessHandler(accessService),
		WSHandler:        wsHandler.NewWebSocketHandler(hub, s.cfg.CORSAllowedOrigins, s.logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(authService),
		BackupLimiter:    middleware.NewRateLimiter(s.cfg.RateLimitPerMin),
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RequestID(),
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.CORSAllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.String("env", s.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
