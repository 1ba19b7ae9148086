package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/sparklens/internal/application"
	appai "github.com/bryanwahyu/sparklens/internal/application/ai"
	appanalysis "github.com/bryanwahyu/sparklens/internal/application/analysis"
	"github.com/bryanwahyu/sparklens/internal/config"
	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
	"github.com/bryanwahyu/sparklens/internal/infra/ai/openai"
	"github.com/bryanwahyu/sparklens/internal/infra/cache"
	mysqlp "github.com/bryanwahyu/sparklens/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/sparklens/internal/infra/db/postgres"
	"github.com/bryanwahyu/sparklens/internal/infra/httpserver"
	"github.com/bryanwahyu/sparklens/internal/infra/sink"
	minioStore "github.com/bryanwahyu/sparklens/internal/infra/storage"
	"github.com/bryanwahyu/sparklens/internal/middleware"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sparklens",
		Short: "Business idea analysis API",
		RunE:  runServer,
	}

	// path config.yaml
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", defaultPath, "Path to the YAML config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sparklens").Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	schema, err := domain.LookupSchema(cfg.Analysis.SchemaVersion)
	if err != nil {
		return err
	}

	checkers := map[string]middleware.HealthChecker{}

	client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)

	svc := &appanalysis.Service{
		Client:   client,
		Schema:   schema,
		CacheTTL: cfg.Cache.TTL,
		Clock:    application.SystemClock{},
	}
	if cfg.Analysis.Summary {
		svc.Summaries = appai.NewService(client)
	}

	// init cache
	switch cfg.Cache.Driver {
	case "redis":
		rc, err := cache.Connect(cfg.Cache.URL, schema.Version)
		if err != nil {
			return fmt.Errorf("redis connect error: %w", err)
		}
		defer rc.Close()
		svc.Cache = rc
		checkers["cache"] = middleware.CheckerFunc(rc.Ping)
	case "memory":
		mc := cache.NewMemory(cfg.Cache.Size, cfg.Cache.TTL)
		svc.Cache = mc
		checkers["cache"] = middleware.CheckerFunc(mc.Ping)
	}

	// init sinks
	var sinks sink.Multi
	if cfg.Sink.Dir != "" {
		sinks = append(sinks, sink.NewFile(cfg.Sink.Dir))
	}
	if cfg.Minio.Enabled {
		store, err := minioStore.New(
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		sinks = append(sinks, store)
		checkers["object_store"] = middleware.CheckerFunc(store.Ping)
	}
	if len(sinks) > 0 {
		svc.Sink = sinks
	}

	// init run index
	db, err := openDatabase(ctx, cfg, svc)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = middleware.CheckerFunc(db.PingContext)
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:         &logger,
		HealthCheckers: checkers,
		RateCapacity:   cfg.Server.RateCapacity,
		RateRefill:     cfg.Server.RateRefill,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OpenAI.Timeout*2 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("schema", schema.Version).Str("cache", cfg.Cache.Driver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	logger.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	return nil
}

// openDatabase wires the run index, failure log and reference source for the configured driver.
func openDatabase(ctx context.Context, cfg *config.Config, svc *appanalysis.Service) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect error: %w", err)
		}
		svc.Runs = mysqlp.NewRunRepository(db)
		svc.Failures = mysqlp.NewFailureRepository(db)
		svc.References = mysqlp.NewReferenceRepository(db)
		return db, nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect error: %w", err)
		}
		svc.Runs = pgp.NewRunRepository(db)
		svc.Failures = pgp.NewFailureRepository(db)
		svc.References = pgp.NewReferenceRepository(db)
		return db, nil
	}
	zerolog.Ctx(ctx).Warn().Msg("no database configured; run index and reference lookup disabled")
	return nil, nil
}
