package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/repository/base"
	"github.com/google/uuid"
)

type TransactionRepository struct {
	*base.Repository
}

func NewTransactionRepository(q base.Querier) *TransactionRepository {
	return &TransactionRepository{Repository: base.NewRepository(q)}
}

// Create добавляет запись в журнал
func (r *TransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, wallet_id, amount, type, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	id := uuid.NewString()
	_, err := r.ExecAffected(
		ctx, query,
		id,
		transaction.WalletID,
		transaction.Amount,
		transaction.Type,
		transaction.SessionID,
		transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	transaction.ID = id
	return nil
}

// CreditTotals сумма начислений по кошелькам
func (r *TransactionRepository) CreditTotals(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT wallet_id, SUM(amount)::BIGINT
		FROM transactions
		WHERE type = 'credit'
		GROUP BY wallet_id
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sum credits: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var (
			walletID string
			total    int64
		)
		if err := rows.Scan(&walletID, &total); err != nil {
			return nil, fmt.Errorf("scan credit total: %w", err)
		}
		totals[walletID] = total
	}

	return totals, rows.Err()
}
