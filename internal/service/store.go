package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/model"
)

// Store выполняет fn в одной атомарной транзакции: commit при nil, rollback при ошибке.
// Повторы при конфликтах сериализации выполняет реализация.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx операции над хранилищем занятий и журналом внутри транзакции
type Tx interface {
	// LockTutor сериализует транзакции одного учителя до конца текущей транзакции
	LockTutor(ctx context.Context, tutorID string) error
	ActiveSessions(ctx context.Context, tutorID string) ([]*model.Session, error)
	// CreateSession сохраняет занятие и проставляет ему ID
	CreateSession(ctx context.Context, session *model.Session) error
	// SessionForUpdate возвращает nil, nil если занятия нет
	SessionForUpdate(ctx context.Context, sessionID string) (*model.Session, error)
	CompleteSession(ctx context.Context, session *model.Session) error

	// WalletForUpdate возвращает nil, nil если кошелька нет
	WalletForUpdate(ctx context.Context, tutorID string) (*model.Wallet, error)
	CreateWallet(ctx context.Context, wallet *model.Wallet) error
	// IncrementWallet атомарно прибавляет amount на стороне хранилища
	IncrementWallet(ctx context.Context, tutorID string, amount int64, at time.Time) error
	CreateTransaction(ctx context.Context, transaction *model.Transaction) error
}

// LedgerSnapshot кошельки и журнал на один и тот же момент
type LedgerSnapshot struct {
	Wallets      []*model.Wallet
	CreditTotals map[string]int64 // сумма начислений по walletId
}

// LedgerReader чтение кошельков и журнала для сверки
type LedgerReader interface {
	// LedgerSnapshot читает кошельки и суммы начислений из одного снимка,
	// чтобы параллельное начисление не попало только в одну из половин
	LedgerSnapshot(ctx context.Context) (*LedgerSnapshot, error)
}
