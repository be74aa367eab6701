// Package memory implements the session and ledger store in process memory.
// Transactions are serialized by a single mutex and applied from a staged copy
// on commit, so a failed transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/google/uuid"
)

type state struct {
	sessions     map[string]model.Session
	wallets      map[string]model.Wallet
	transactions []model.Transaction
}

func newState() *state {
	return &state{
		sessions: make(map[string]model.Session),
		wallets:  make(map[string]model.Wallet),
	}
}

func (s *state) clone() *state {
	c := &state{
		sessions:     make(map[string]model.Session, len(s.sessions)),
		wallets:      make(map[string]model.Wallet, len(s.wallets)),
		transactions: append([]model.Transaction(nil), s.transactions...),
	}
	for id, session := range s.sessions {
		c.sessions[id] = session
	}
	for id, wallet := range s.wallets {
		c.wallets[id] = wallet
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

// RunInTx выполняет fn эксклюзивно над копией данных
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx service.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.data.clone()
	if err := fn(ctx, &tx{st: staged}); err != nil {
		return err
	}

	// Отменённый вызов не коммитится
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = staged
	return nil
}

// LedgerSnapshot читает кошельки и журнал под одной блокировкой
func (s *Store) LedgerSnapshot(ctx context.Context) (*service.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wallets := make([]*model.Wallet, 0, len(s.data.wallets))
	for _, wallet := range s.data.wallets {
		w := wallet
		wallets = append(wallets, &w)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].TutorID < wallets[j].TutorID })

	totals := make(map[string]int64)
	for _, t := range s.data.transactions {
		if t.Type == model.TransactionTypeCredit {
			totals[t.WalletID] += t.Amount
		}
	}

	return &service.LedgerSnapshot{Wallets: wallets, CreditTotals: totals}, nil
}

// Session возвращает копию занятия
func (s *Store) Session(id string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.data.sessions[id]
	return session, ok
}

// Sessions все занятия учителя
func (s *Store) Sessions(tutorID string) []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []model.Session
	for _, session := range s.data.sessions {
		if session.TutorID == tutorID {
			sessions = append(sessions, session)
		}
	}
	return sessions
}

func (s *Store) Wallet(tutorID string) (model.Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet, ok := s.data.wallets[tutorID]
	return wallet, ok
}

func (s *Store) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.data.transactions...)
}

// PutWallet записывает кошелёк напрямую, минуя журнал
func (s *Store) PutWallet(wallet model.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.wallets[wallet.TutorID] = wallet
}

type tx struct {
	st *state
}

// LockTutor не нужен: транзакции и так выполняются по одной
func (t *tx) LockTutor(ctx context.Context, tutorID string) error {
	return nil
}

func (t *tx) ActiveSessions(ctx context.Context, tutorID string) ([]*model.Session, error) {
	var sessions []*model.Session
	for _, session := range t.st.sessions {
		if session.TutorID == tutorID && session.Status == model.SessionStatusActive {
			s := session
			sessions = append(sessions, &s)
		}
	}
	return sessions, nil
}

func (t *tx) CreateSession(ctx context.Context, session *model.Session) error {
	if session.Status == model.SessionStatusActive {
		active, _ := t.ActiveSessions(ctx, session.TutorID)
		if len(active) > 0 {
			return service.ErrActiveSession
		}
	}

	session.ID = uuid.NewString()
	stored := *session
	stored.StudentIDs = append([]string(nil), session.StudentIDs...)
	t.st.sessions[session.ID] = stored
	return nil
}

func (t *tx) SessionForUpdate(ctx context.Context, sessionID string) (*model.Session, error) {
	session, ok := t.st.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (t *tx) CompleteSession(ctx context.Context, session *model.Session) error {
	stored, ok := t.st.sessions[session.ID]
	if !ok {
		return fmt.Errorf("session not found")
	}
	if stored.Status != model.SessionStatusActive {
		return service.ErrSessionCompleted
	}

	stored.Status = session.Status
	stored.EndTime = session.EndTime
	stored.DurationMinutes = session.DurationMinutes
	stored.IsPaid = session.IsPaid
	t.st.sessions[session.ID] = stored
	return nil
}

func (t *tx) WalletForUpdate(ctx context.Context, tutorID string) (*model.Wallet, error) {
	wallet, ok := t.st.wallets[tutorID]
	if !ok {
		return nil, nil
	}
	return &wallet, nil
}

func (t *tx) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	if existing, ok := t.st.wallets[wallet.TutorID]; ok {
		existing.Balance += wallet.Balance
		existing.LastUpdated = wallet.LastUpdated
		t.st.wallets[wallet.TutorID] = existing
		return nil
	}
	t.st.wallets[wallet.TutorID] = *wallet
	return nil
}

func (t *tx) IncrementWallet(ctx context.Context, tutorID string, amount int64, at time.Time) error {
	wallet, ok := t.st.wallets[tutorID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	wallet.Balance += amount
	wallet.LastUpdated = at
	t.st.wallets[tutorID] = wallet
	return nil
}

func (t *tx) CreateTransaction(ctx context.Context, transaction *model.Transaction) error {
	for _, existing := range t.st.transactions {
		if existing.SessionID == transaction.SessionID {
			return fmt.Errorf("transaction for session %s already exists", transaction.SessionID)
		}
	}
	transaction.ID = uuid.NewString()
	t.st.transactions = append(t.st.transactions, *transaction)
	return nil
}

var (
	_ service.Store        = (*Store)(nil)
	_ service.LedgerReader = (*Store)(nil)
)
