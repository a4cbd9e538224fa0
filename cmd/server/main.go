package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskforce/internal/config"
	"taskforce/internal/db"
	"taskforce/internal/email"
	"taskforce/internal/jobs"
	"taskforce/internal/metrics"
	"taskforce/internal/server"
)

const appName = "taskforce"

// Version is set at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Solarpunk Taskforce web server",
		Long: `Serves the Solarpunk Taskforce site and JSON API: projects,
organisations, grants and watchdog reports with admin moderation.

Configuration is read from the environment (DATABASE_URL, OIDC_*, SMTP_*...).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on startup")

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			return migrate(database, cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Load development fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()
			if !cfg.IsDev() {
				return fmt.Errorf("refusing to seed in %q environment", cfg.Env)
			}
			if err := migrate(database, cfg); err != nil {
				return err
			}
			if err := database.SeedDev(cmd.Context()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			slog.Info("development fixtures loaded")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// setup loads configuration, configures logging and connects to the
// database.
func setup(ctx context.Context) (*config.Config, *db.DB, error) {
	cfg := config.Load()
	configureLogging(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	database, err := db.New(ctx, cfg.DatabaseURL, cfg.DatabaseRole)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, database, nil
}

func configureLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func migrate(database *db.DB, cfg *config.Config) error {
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations completed")
	return nil
}

func serve(ctx context.Context, skipMigrations bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, database, err := setup(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if !skipMigrations {
		if err := migrate(database, cfg); err != nil {
			return err
		}
	}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}

	metrics.Init(database)

	notifier := email.NewNotifier(cfg, database)

	if cfg.PendingDigestInterval > 0 && cfg.IsEmailEnabled() {
		digest := jobs.NewPendingDigest(database, notifier, cfg.PendingDigestInterval)
		go digest.Start(ctx)
	}

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, database, catalog, notifier); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server exited")
	return nil
}
