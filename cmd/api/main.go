package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/birthday-service/internal/config"
	"github.com/crucial707/birthday-service/internal/scheduler"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("birthday service stopped with error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	connector, err := newConnector(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.WithLocation(loc), scheduler.WithLogger(logger))
	svc, err := newService(cfg, sched, connector, logger)
	if err != nil {
		return err
	}

	// Scheduled runs outlive the signal context; Stop waits for them instead.
	jobCtx := context.WithoutCancel(ctx)
	job := func() { _, _ = svc.Run(jobCtx) }
	if cfg.DailyCron != "" {
		if err := sched.StartDaily(cfg.DailyCron, job); err != nil {
			return err
		}
	}
	if err := sched.StartPeriodicRecheck(cfg.RecheckInterval, job); err != nil {
		return err
	}

	logger.Info("birthday service started",
		"store", cfg.StoreKind(),
		"port", cfg.Port,
		"daily_cron", cfg.DailyCron,
		"recheck_interval", cfg.RecheckInterval.String(),
		"target_date", cfg.TargetDate)

	// First attempt right away, as a restarted service should not wait for the next tick.
	svc.Trigger(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(svc, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("running server on port "+cfg.Port, "tls", cfg.TLSCertFile != "")
		var err error
		if cfg.TLSCertFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}

		svc.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("birthday service stopped")
	return nil
}
