package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/repository/base"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const retryBaseDelay = 20 * time.Millisecond

// Store транзакционное хранилище занятий и журнала на PostgreSQL
type Store struct {
	pool       *pgxpool.Pool
	maxRetries uint64
	logger     *zap.Logger
}

func NewStore(pool *pgxpool.Pool, maxRetries uint64, logger *zap.Logger) *Store {
	return &Store{
		pool:       pool,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// RunInTx выполняет fn в транзакции SERIALIZABLE.
// При конфликте сериализации или дедлоке транзакция повторяется целиком.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx service.Tx) error) error {
	return retryTx(ctx, newBackoff(retryBaseDelay, s.maxRetries), s.logger, func(ctx context.Context) error {
		return s.runOnce(ctx, fn)
	})
}

// newBackoff экспоненциальная задержка с джиттером, не больше maxRetries повторов.
// Backoff хранит состояние, поэтому нужен новый на каждый вызов.
func newBackoff(baseDelay time.Duration, maxRetries uint64) retry.Backoff {
	backoff := retry.NewExponential(baseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	return retry.WithMaxRetries(maxRetries, backoff)
}

// retryTx повторяет attempt, пока тот падает с конфликтом сериализации или дедлоком.
// Остальные ошибки возвращаются сразу; после исчерпания повторов возвращается
// последняя ошибка без обёртки retry.
func retryTx(ctx context.Context, backoff retry.Backoff, logger *zap.Logger, attempt func(ctx context.Context) error) error {
	n := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		n++
		err := attempt(ctx)
		if err != nil && base.IsRetryable(err) {
			logger.Warn("Retrying transaction",
				zap.Int("attempt", n),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, tx service.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newTxStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// LedgerSnapshot читает кошельки и суммы начислений в одной
// read-only транзакции REPEATABLE READ, то есть из одного снимка базы
func (s *Store) LedgerSnapshot(ctx context.Context) (*service.LedgerSnapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	wallets, err := NewWalletRepository(tx).List(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := NewTransactionRepository(tx).CreditTotals(ctx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	return &service.LedgerSnapshot{Wallets: wallets, CreditTotals: totals}, nil
}

// txStore репозитории, привязанные к одной pgx.Tx
type txStore struct {
	sessions     *SessionRepository
	wallets      *WalletRepository
	transactions *TransactionRepository
}

func newTxStore(tx pgx.Tx) *txStore {
	return &txStore{
		sessions:     NewSessionRepository(tx),
		wallets:      NewWalletRepository(tx),
		transactions: NewTransactionRepository(tx),
	}
}

func (t *txStore) LockTutor(ctx context.Context, tutorID string) error {
	return t.sessions.LockTutor(ctx, tutorID)
}

func (t *txStore) ActiveSessions(ctx context.Context, tutorID string) ([]*model.Session, error) {
	return t.sessions.GetActiveByTutorID(ctx, tutorID)
}

func (t *txStore) CreateSession(ctx context.Context, session *model.Session) error {
	return t.sessions.Create(ctx, session)
}

func (t *txStore) SessionForUpdate(ctx context.Context, sessionID string) (*model.Session, error) {
	return t.sessions.GetByIDForUpdate(ctx, sessionID)
}

func (t *txStore) CompleteSession(ctx context.Context, session *model.Session) error {
	return t.sessions.Complete(ctx, session)
}

func (t *txStore) WalletForUpdate(ctx context.Context, tutorID string) (*model.Wallet, error) {
	return t.wallets.GetForUpdate(ctx, tutorID)
}

func (t *txStore) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	return t.wallets.Create(ctx, wallet)
}

func (t *txStore) IncrementWallet(ctx context.Context, tutorID string, amount int64, at time.Time) error {
	return t.wallets.Increment(ctx, tutorID, amount, at)
}

func (t *txStore) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	return t.transactions.Create(ctx, transaction)
}

var (
	_ service.Store        = (*Store)(nil)
	_ service.LedgerReader = (*Store)(nil)
	_ service.Tx           = (*txStore)(nil)
)
