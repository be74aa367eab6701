package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tutorpay/internal/metrics"
	"go.uber.org/zap"
)

// Discrepancy кошелёк, баланс которого не совпадает с суммой журнала
type Discrepancy struct {
	TutorID     string
	Balance     int64
	LedgerTotal int64
}

// LedgerService сверка балансов с журналом начислений. Только чтение.
type LedgerService struct {
	reader  LedgerReader
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLedgerService(reader LedgerReader, m *metrics.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		reader:  reader,
		metrics: m,
		logger:  logger,
	}
}

// Reconcile сравнивает баланс каждого кошелька с суммой его начислений
func (s *LedgerService) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	snapshot, err := s.reader.LedgerSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger snapshot: %w", err)
	}
	wallets, totals := snapshot.Wallets, snapshot.CreditTotals

	var discrepancies []Discrepancy
	seen := make(map[string]bool, len(wallets))
	for _, wallet := range wallets {
		seen[wallet.TutorID] = true
		if total := totals[wallet.TutorID]; total != wallet.Balance {
			discrepancies = append(discrepancies, Discrepancy{
				TutorID:     wallet.TutorID,
				Balance:     wallet.Balance,
				LedgerTotal: total,
			})
		}
	}

	// Записи журнала без кошелька
	for tutorID, total := range totals {
		if !seen[tutorID] {
			discrepancies = append(discrepancies, Discrepancy{TutorID: tutorID, LedgerTotal: total})
		}
	}

	sort.Slice(discrepancies, func(i, j int) bool {
		return discrepancies[i].TutorID < discrepancies[j].TutorID
	})

	for _, d := range discrepancies {
		s.logger.Warn("Wallet balance does not match ledger",
			zap.String("tutor_id", d.TutorID),
			zap.Int64("balance", d.Balance),
			zap.Int64("ledger_total", d.LedgerTotal),
		)
	}
	s.metrics.SetDiscrepancies(len(discrepancies))

	s.logger.Info("Ledger reconciled",
		zap.Int("wallets", len(wallets)),
		zap.Int("discrepancies", len(discrepancies)),
	)

	return discrepancies, nil
}
