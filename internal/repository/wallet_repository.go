package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/repository/base"
)

type WalletRepository struct {
	*base.Repository
}

func NewWalletRepository(q base.Querier) *WalletRepository {
	return &WalletRepository{Repository: base.NewRepository(q)}
}

// GetForUpdate получает кошелёк учителя с блокировкой строки
func (r *WalletRepository) GetForUpdate(ctx context.Context, tutorID string) (*model.Wallet, error) {
	query := `
		SELECT tutor_id, balance, last_updated
		FROM wallets
		WHERE tutor_id = $1
		FOR UPDATE
	`

	var wallet model.Wallet
	err := r.QueryRow(ctx, query, tutorID).Scan(&wallet.TutorID, &wallet.Balance, &wallet.LastUpdated)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return &wallet, nil
}

// Create создаёт кошелёк. Если параллельная транзакция успела создать его раньше,
// баланс прибавляется к существующему.
func (r *WalletRepository) Create(ctx context.Context, wallet *model.Wallet) error {
	query := `
		INSERT INTO wallets (tutor_id, balance, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (tutor_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance,
		    last_updated = EXCLUDED.last_updated
	`

	if _, err := r.ExecAffected(ctx, query, wallet.TutorID, wallet.Balance, wallet.LastUpdated); err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}

	return nil
}

// Increment атомарно увеличивает баланс
func (r *WalletRepository) Increment(ctx context.Context, tutorID string, amount int64, at time.Time) error {
	query := `
		UPDATE wallets
		SET balance = balance + $2, last_updated = $3
		WHERE tutor_id = $1
	`

	affected, err := r.ExecAffected(ctx, query, tutorID, amount, at)
	if err != nil {
		return fmt.Errorf("increment wallet: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("wallet not found")
	}

	return nil
}

// List получает все кошельки
func (r *WalletRepository) List(ctx context.Context) ([]*model.Wallet, error) {
	query := `
		SELECT tutor_id, balance, last_updated
		FROM wallets
		ORDER BY tutor_id
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*model.Wallet
	for rows.Next() {
		var wallet model.Wallet
		if err := rows.Scan(&wallet.TutorID, &wallet.Balance, &wallet.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, &wallet)
	}

	return wallets, rows.Err()
}
