package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/app"
	"github.com/Freeeeeet/tutorpay/internal/auth"
	"github.com/Freeeeeet/tutorpay/internal/controller"
	"github.com/Freeeeeet/tutorpay/internal/controller/api"
	"github.com/Freeeeeet/tutorpay/internal/metrics"
	"github.com/Freeeeeet/tutorpay/internal/repository"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Telegram bot and the ledger reconciler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		return serve(ctx, rt)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply migrations on startup")
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger

	logger.Info("Starting tutorpay",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	shutdownTracing, err := app.SetupTracing(ctx, cfg.OTelEndpoint, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	if !skipMigrations {
		migrator, err := app.NewMigrator(rt.pool, logger)
		if err != nil {
			return err
		}
		err = migrator.Run(ctx)
		migrator.Close()
		if err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Сервисы
	store := repository.NewStore(rt.pool, cfg.TxMaxRetries, logger)
	userService := service.NewUserService(repository.NewUserRepository(rt.pool), logger)
	sessionService := service.NewSessionService(store, m, logger)
	ledgerService := service.NewLedgerService(store, m, logger)

	scheduler := app.NewScheduler(ledgerService, cfg.ReconcileInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// HTTP
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	apiServer := api.NewServer(sessionService, auth.NewAuthenticator(tokens, userService), logger)
	if cfg.MetricsEnabled {
		apiServer.SetMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	// Бот создаётся до запуска HTTP-сервера
	var telegram botRunner
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		telegram = controller.NewBotController(b, userService, sessionService, logger)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return runServers(ctx, httpServer, telegram, logger)
}

// botRunner Telegram бот, см. controller.BotController
type botRunner interface {
	RegisterHandlers(ctx context.Context) error
	Start(ctx context.Context) error
}

// runServers работает до отмены ctx или первой ошибки HTTP-сервера или бота.
// HTTP-сервер останавливается при любом выходе. telegram может быть nil.
func runServers(ctx context.Context, httpServer *http.Server, telegram botRunner, logger *zap.Logger) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if telegram != nil {
		if err := telegram.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}

		go func() {
			if err := telegram.Start(ctx); err != nil {
				errCh <- fmt.Errorf("telegram bot: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		return nil
	case err := <-errCh:
		logger.Error("Component failed, shutting down", zap.Error(err))
		return err
	}
}
