package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"panel-service/internal/app"
	"panel-service/internal/config"
	"panel-service/internal/db"
	"panel-service/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli is what every sub-command needs before it starts
type cli struct {
	cfg    config.AppConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &cli{}

	rootCmd := &cobra.Command{
		Use:           "panel",
		Short:         "Multi-role admin panel service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Env, cfg.LogLevel)
			if err != nil {
				return err
			}
			rt.cfg, rt.logger = cfg, log
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newSeedCmd(rt),
		newBackupCmd(rt),
	)
	return rootCmd
}

func newServeCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.serve(cmd.Context())
		},
	}
}

func (rt *cli) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.NewServer(rt.cfg, rt.logger).Start(ctx)
}

func newMigrateCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOrBackground(cmd.Context())
			pool, err := app.OpenDatabase(ctx, rt.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.RunMigrations(pool); err != nil {
				return err
			}
			rt.logger.Info("migrations applied")
			return nil
		},
	}
}

func newSeedCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create roles, permissions and the default accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOrBackground(cmd.Context())
			pool, err := app.OpenDatabase(ctx, rt.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			return app.Seed(ctx, rt.cfg, pool, rt.logger)
		},
	}
}

func newBackupCmd(rt *cli) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
	}

	backupCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Create a backup archive now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := contextOrBackground(cmd.Context())
				pool, err := app.OpenDatabase(ctx, rt.cfg)
				if err != nil {
					return err
				}
				defer pool.Close()

				manager := app.NewBackupManager(rt.cfg, app.NewActivityService(pool, nil, rt.logger), rt.logger)
				archive, err := manager.Run(ctx, 0)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%d bytes)\n", archive.Name, archive.Size)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List backup archives, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				manager := app.NewBackupManager(rt.cfg, nil, rt.logger)
				archives, err := manager.List(contextOrBackground(cmd.Context()))
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSIZE\tLAST MODIFIED")
				for _, a := range archives {
					fmt.Fprintf(w, "%s\t%d\t%s\n", a.Name, a.Size, a.LastModified.Format("2006-01-02 15:04:05"))
				}
				return w.Flush()
			},
		},
	)
	return backupCmd
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
