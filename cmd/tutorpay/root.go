package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutorpay/internal/app"
	"github.com/Freeeeeet/tutorpay/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev" // задаётся через ldflags при сборке

var rootCmd = &cobra.Command{
	Use:           "tutorpay",
	Short:         "Tutoring session tracking with automatic tutor payouts",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute запускает корневую команду, SIGINT и SIGTERM отменяют её контекст
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(tutorCmd)
}

// runtime общие зависимости команд, которым нужна база
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func (r *runtime) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
	_ = r.logger.Sync()
}

// bootstrap загружает конфиг, создаёт логгер и подключается к базе
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}

	pool, err := app.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, pool: pool}, nil
}
