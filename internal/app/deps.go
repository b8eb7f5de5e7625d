// internal/app/deps.go
package app

import (
	"context"
	"fmt"
	"time"

	"panel-service/internal/config"
	"panel-service/internal/db"
	"panel-service/internal/repository/postgres"
	activitysvc "panel-service/internal/service/activity"
	authsvc "panel-service/internal/service/auth"
	backupsvc "panel-service/internal/service/backup"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const backupDownloadBase = "/api/v1/backup/download"

// OpenDatabase connects the pgx pool used by the server and the CLI commands
func OpenDatabase(ctx context.Context, cfg config.AppConfig) (*pgxpool.Pool, error) {
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        10,
		MaxConnIdleTime: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return pool, nil
}

// NewActivityService persists audit entries; broadcaster may be nil outside the server
func NewActivityService(pool *pgxpool.Pool, broadcaster activitysvc.Broadcaster, logger *zap.Logger) *activitysvc.ActivityService {
	return activitysvc.NewActivityService(postgres.NewActivityRepository(pool), broadcaster, logger)
}

// NewBackupManager wires pg_dump, the optional S3 mirror and the audit trail
func NewBackupManager(cfg config.AppConfig, recorder backupsvc.ActivityRecorder, logger *zap.Logger) *backupsvc.Manager {
	var mirror backupsvc.Mirror
	if m := backupsvc.NewS3Mirror(backupsvc.S3Config{
		Endpoint:        cfg.Backup.S3Endpoint,
		Region:          cfg.Backup.S3Region,
		Bucket:          cfg.Backup.S3Bucket,
		AccessKeyID:     cfg.Backup.S3AccessKeyID,
		SecretAccessKey: cfg.Backup.S3SecretAccessKey,
		Prefix:          cfg.Backup.S3Prefix,
	}); m != nil {
		mirror = m
	}

	return backupsvc.NewManager(
		backupsvc.ManagerConfig{Dir: cfg.Backup.Dir, DownloadBase: backupDownloadBase},
		backupsvc.NewPgDumper(cfg.Backup.PgDumpPath, cfg.DatabaseURL),
		mirror,
		recorder,
		logger,
	)
}

// Seed creates the roles, permissions and default accounts
func Seed(ctx context.Context, cfg config.AppConfig, pool *pgxpool.Pool, logger *zap.Logger) error {
	recorder := NewActivityService(pool, nil, logger)
	svc := authsvc.NewAuthService(postgres.NewAuthRepository(pool), nil, nil, nil, recorder, logger)
	return svc.Seed(ctx, authsvc.DefaultSeedUsers(cfg.SeedPassword))
}
