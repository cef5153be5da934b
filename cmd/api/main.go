package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/posrelay/internal/config"
	"github.com/dejobratic/posrelay/internal/database"
	"github.com/dejobratic/posrelay/internal/events"
	idempostgres "github.com/dejobratic/posrelay/internal/idempotency/postgres"
	ordersadapters "github.com/dejobratic/posrelay/internal/orders/adapters"
	httpadapter "github.com/dejobratic/posrelay/internal/orders/adapters/http"
	orderspostgres "github.com/dejobratic/posrelay/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/posrelay/internal/orders/app"
	ordersmetrics "github.com/dejobratic/posrelay/internal/orders/metrics"
	"github.com/dejobratic/posrelay/internal/ordertech"
	"github.com/dejobratic/posrelay/internal/rpc"
	"github.com/dejobratic/posrelay/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	meter := tel.Meter(cfg.Service.Name)

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		return err
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	webhookClient, err := rpc.NewClient(rpc.Config{
		BaseURL: cfg.Webhook.BaseURL,
		APIKey:  cfg.Webhook.APIKey,
		Timeout: cfg.Webhook.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create webhook client: %w", err)
	}

	relayCfg := ordertech.Config{
		URL:     cfg.OrderTech.URL,
		Token:   cfg.OrderTech.Token,
		Timeout: cfg.OrderTech.Timeout,
	}
	relay := ordertech.NewClient(relayCfg)
	if !relayCfg.Configured() {
		logger.Warn("ordering platform not configured, order statuses will not be relayed")
	}

	service := ordersapp.NewService(ordersapp.Dependencies{
		Orders:      ordersadapters.NewObservableRepository(orderspostgres.NewRepository(pool), dbMetrics),
		Sessions:    ordersadapters.NewObservableSessionRepository(orderspostgres.NewSessionRepository(pool), dbMetrics),
		Events:      ordersadapters.NewObservableEventBus(events.NewLogBus(logger), eventMetrics),
		Idempotency: idempostgres.NewStore(pool),
		Webhook:     webhookClient,
		Relay:       relay,
		Logger:      logger,
		Metrics:     orderMetrics,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	httpadapter.NewHandler(service, cfg.Webhook.APIKey).Register(mux)

	handler := otelhttp.NewHandler(
		withRecovery(logger, withLogging(logger, httpadapter.WithMetrics(mux, httpMetrics))),
		cfg.Service.Name,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		logger.Info("http server stopped")

		// Submissions accepted before shutdown still get their webhook call,
		// as long as the grace period lasts.
		if err := service.DrainNotifications(shutdownCtx); err != nil {
			logger.Warn("abandoning in-flight order notifications", "error", err)
		}

		if err := tel.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}

func withRecovery(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
