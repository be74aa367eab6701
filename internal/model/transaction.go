package model

import "time"

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
)

// Transaction запись журнала начислений, после создания не меняется
type Transaction struct {
	ID        string          `json:"transactionId"`
	WalletID  string          `json:"walletId"`
	Amount    int64           `json:"amount"`
	Type      TransactionType `json:"type"`
	SessionID string          `json:"sessionId"`
	CreatedAt time.Time       `json:"createdAt"`
}
