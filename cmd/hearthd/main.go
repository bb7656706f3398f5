package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openhearth/hearth/pkg/api"
	"github.com/openhearth/hearth/pkg/audit"
	"github.com/openhearth/hearth/pkg/auth"
	"github.com/openhearth/hearth/pkg/config"
	"github.com/openhearth/hearth/pkg/middleware"
	"github.com/openhearth/hearth/pkg/observability"
	"github.com/openhearth/hearth/pkg/policy"
	"github.com/openhearth/hearth/pkg/storage"
	"github.com/openhearth/hearth/pkg/store"
)

func main() {
	log := setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetLevel(parseLogrusLevel(cfg.Observability.LogLevel))
	log.Info("Starting hearthd")

	db, err := connectDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations applied")

	files, err := storage.NewFileSystemStore(cfg.Storage.FilesystemRoot)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}
	log.Infof("File storage initialized in %s", cfg.Storage.FilesystemRoot)

	appLogger := observability.NewLogger(observability.ParseLevel(cfg.Observability.LogLevel), os.Stdout)
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	st := store.New(db)
	pol := policy.New(st)
	authsvc := auth.NewService(st, []byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)
	recorder := audit.NewRecorder(db, appLogger)

	server := api.NewServer(st, pol, authsvc, files, recorder, appLogger, metrics, cfg.Storage.MaxUploadBytes)

	var handler http.Handler = server.Router()
	handler = middleware.Identity(authsvc, st)(handler)
	handler = middleware.Recovery(appLogger)(handler)
	handler = middleware.Logging(appLogger, metrics)(handler)
	handler = middleware.RequestID(handler)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(registry))
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	maintenance := cron.New()
	_, err = maintenance.AddFunc(cfg.Auth.CleanupCron, func() {
		purged, err := authsvc.PurgeExpired(ctx, cfg.Auth.TokenRetention)
		if err != nil {
			log.Errorf("Token purge failed: %v", err)
			return
		}
		if metrics != nil {
			metrics.TokensPurgedTotal.Add(float64(purged))
			metrics.CollectDBStats(db)
		}
		if purged > 0 {
			log.Infof("Purged %d expired token records", purged)
		}
	})
	if err != nil {
		log.Fatalf("Invalid token cleanup schedule %q: %v", cfg.Auth.CleanupCron, err)
	}
	maintenance.Start()
	defer maintenance.Stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		log.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			log.Infof("Received signal %s, shutting down", sig)
		case <-groupCtx.Done():
			return groupCtx.Err()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("API server shutdown: %v", err)
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Health server shutdown: %v", err)
		}
		cancel()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server exited with error: %v", err)
	}
	log.Info("Shutdown complete")
}

func setupLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	return log
}

func parseLogrusLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func connectDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
