package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/metrics"
	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/repository/memory"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconcile_ConsistentLedger(t *testing.T) {
	f := newFixture(t)
	f.runSession(t, 50*time.Minute)
	f.runSession(t, 90*time.Minute)

	ledger := service.NewLedgerService(f.store, f.metrics, zap.NewNop())
	discrepancies, err := ledger.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Empty(t, discrepancies)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.LedgerDiscrepancies))
}

func TestReconcile_ReportsMismatch(t *testing.T) {
	f := newFixture(t)
	f.runSession(t, 50*time.Minute)

	// Баланс без записи в журнале
	f.store.PutWallet(model.Wallet{TutorID: "tutor-b", Balance: 700})
	wallet, _ := f.store.Wallet(tutorID)
	wallet.Balance += 1
	f.store.PutWallet(wallet)

	m := metrics.New(prometheus.NewRegistry())
	ledger := service.NewLedgerService(f.store, m, zap.NewNop())
	discrepancies, err := ledger.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []service.Discrepancy{
		{TutorID: tutorID, Balance: 50001, LedgerTotal: 50000},
		{TutorID: "tutor-b", Balance: 700, LedgerTotal: 0},
	}, discrepancies)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerDiscrepancies))
}

// settlingReader завершает ещё одно оплачиваемое занятие сразу после чтения снимка
type settlingReader struct {
	service.LedgerReader
	settle func()
}

func (r *settlingReader) LedgerSnapshot(ctx context.Context) (*service.LedgerSnapshot, error) {
	snapshot, err := r.LedgerReader.LedgerSnapshot(ctx)
	r.settle()
	return snapshot, err
}

func TestReconcile_SettlementDuringReconcile(t *testing.T) {
	f := newFixture(t)
	f.runSession(t, 50*time.Minute)

	reader := &settlingReader{
		LedgerReader: f.store,
		settle:       func() { f.runSession(t, 50*time.Minute) },
	}
	ledger := service.NewLedgerService(reader, f.metrics, zap.NewNop())

	discrepancies, err := ledger.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.LedgerDiscrepancies))

	wallet, ok := f.store.Wallet(tutorID)
	require.True(t, ok)
	assert.Equal(t, 2*service.PaymentAmount, wallet.Balance)
}

func TestReconcile_ConcurrentSettlements(t *testing.T) {
	store := memory.NewStore()
	m := metrics.New(prometheus.NewRegistry())

	// Каждый вызов часов на час позже предыдущего: все занятия оплачиваемые
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	now := func() time.Time { return start.Add(time.Duration(ticks.Add(1)) * time.Hour) }

	svc := service.NewSessionService(store, m, zap.NewNop()).WithClock(now)
	ledger := service.NewLedgerService(store, m, zap.NewNop())
	ctx := context.Background()

	const (
		tutors   = 4
		sessions = 25
	)

	var wg sync.WaitGroup
	for i := 0; i < tutors; i++ {
		wg.Add(1)
		go func(tutor string) {
			defer wg.Done()
			for j := 0; j < sessions; j++ {
				session, err := svc.StartSession(ctx, tutor, []string{"student-1"})
				if !assert.NoError(t, err) {
					return
				}
				_, err = svc.EndSession(ctx, session.ID, tutor)
				if !assert.NoError(t, err) {
					return
				}
			}
		}(fmt.Sprintf("tutor-%d", i))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}

		discrepancies, err := ledger.Reconcile(ctx)
		require.NoError(t, err)
		require.Empty(t, discrepancies)
	}

	for i := 0; i < tutors; i++ {
		wallet, ok := store.Wallet(fmt.Sprintf("tutor-%d", i))
		require.True(t, ok)
		assert.Equal(t, sessions*service.PaymentAmount, wallet.Balance)
	}
}
