package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/service"
	"go.uber.org/zap"
)

// reconciler сверяет балансы кошельков с журналом
type reconciler interface {
	Reconcile(ctx context.Context) ([]service.Discrepancy, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	ledger   reconciler
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(ledger reconciler, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		ledger:   ledger,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("reconcile_interval", s.interval))

	go s.runReconcileTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

// runReconcileTask периодически сверяет журнал
func (s *Scheduler) runReconcileTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.reconcile(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcile(ctx)
		case <-s.stopChan:
			s.logger.Info("Reconcile task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reconcile task cancelled")
			return
		}
	}
}

func (s *Scheduler) reconcile(ctx context.Context) {
	discrepancies, err := s.ledger.Reconcile(ctx)
	if err != nil {
		s.logger.Error("Failed to reconcile ledger", zap.Error(err))
		return
	}

	s.logger.Info("Ledger reconciliation completed", zap.Int("discrepancies", len(discrepancies)))
}
