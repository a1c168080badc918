package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/config"
	"github.com/Simplici0/printdesk/internal/db"
	"github.com/Simplici0/printdesk/internal/documents"
	"github.com/Simplici0/printdesk/internal/logging"
	"github.com/Simplici0/printdesk/internal/metrics"
	"github.com/Simplici0/printdesk/internal/migrations"
	"github.com/Simplici0/printdesk/internal/seed"
	"github.com/Simplici0/printdesk/internal/store"
	"github.com/Simplici0/printdesk/internal/workshop"
)

const devSessionSecret = "printdesk-dev-secret"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "printdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		File:        cfg.LogFile,
		Development: cfg.IsDev(),
	})
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	version, err := migrations.Version(database)
	if err != nil {
		return err
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath), zap.Int64("schema_version", version))

	st := store.New(database)
	ctx := context.Background()
	stats, err := seed.Run(ctx, st, seed.Config{
		AdminUsername: cfg.AdminUsername,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts))

	calculators, err := st.Calculators.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range calculators {
		if codes := c.Pricing.IndivisibleFormats(); len(codes) > 0 {
			logger.Warn("calculator has formats that cannot be quoted",
				zap.String("calculator_id", c.ID), zap.Strings("formats", codes))
		}
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = devSessionSecret
	}
	sessions, err := auth.NewSessions(secret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc := workshop.New(st, documents.NewGenerator(cfg.DocumentsDir), m, logger,
		workshop.WithMaxLoginAttempts(cfg.MaxLoginAttempts))

	srv := newServer(svc, sessions, m, logger, !cfg.IsDev())
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
