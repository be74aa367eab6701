package service_test

import (
	"context"
	"errors"
	"sync"
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

const tutorID = "tutor-1"

// clock ручные часы для тестов
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *memory.Store
	clock   *clock
	metrics *metrics.Metrics
	svc     *service.SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	c := newClock()
	m := metrics.New(prometheus.NewRegistry())
	svc := service.NewSessionService(store, m, zap.NewNop()).WithClock(c.Now)
	return &fixture{store: store, clock: c, metrics: m, svc: svc}
}

// runSession начинает занятие и завершает его через d
func (f *fixture) runSession(t *testing.T, d time.Duration) (*model.Session, *service.EndResult) {
	t.Helper()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, tutorID, []string{"student-1"})
	require.NoError(t, err)

	f.clock.Advance(d)
	result, err := f.svc.EndSession(ctx, session.ID, tutorID)
	require.NoError(t, err)
	return session, result
}

func TestStartSession_CreatesActiveSession(t *testing.T) {
	f := newFixture(t)
	students := []string{"student-1", "student-2"}

	session, err := f.svc.StartSession(context.Background(), tutorID, students)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, tutorID, session.TutorID)
	assert.Equal(t, students, session.StudentIDs)
	assert.Equal(t, f.clock.Now(), session.StartTime)
	assert.Equal(t, model.SessionStatusActive, session.Status)
	assert.False(t, session.IsPaid)
	assert.Nil(t, session.EndTime)
	assert.Nil(t, session.DurationMinutes)

	stored, ok := f.store.Session(session.ID)
	require.True(t, ok)
	assert.Equal(t, *session, stored)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsStarted))
}

func TestStartSession_ConflictWhenActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, tutorID, []string{"student-1"})
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, tutorID, []string{"student-2"})
	require.ErrorIs(t, err, service.ErrActiveSession)
	assert.EqualError(t, err, "Tutor already has an active session")

	assert.Len(t, f.store.Sessions(tutorID), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionConflicts))
}

func TestStartSession_OtherTutorNotBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, tutorID, []string{"student-1"})
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, "tutor-2", []string{"student-1"})
	assert.NoError(t, err)
}

func TestStartSession_AllowedAfterCompletion(t *testing.T) {
	f := newFixture(t)
	f.runSession(t, 10*time.Minute)

	_, err := f.svc.StartSession(context.Background(), tutorID, []string{"student-1"})
	assert.NoError(t, err)
}

func TestStartSession_ConcurrentStartsSingleWinner(t *testing.T) {
	f := newFixture(t)
	const callers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.StartSession(context.Background(), tutorID, []string{"student-1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if domainErr, ok := service.AsError(err); ok && domainErr.Kind == service.KindConflict {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	assert.Len(t, f.store.Sessions(tutorID), 1)
}

func TestEndSession_Settlement(t *testing.T) {
	tests := []struct {
		name        string
		duration    time.Duration
		wantPaid    bool
		wantMessage string
	}{
		{"fifty minutes", 50 * time.Minute, true, "Session ended, wallet credited."},
		{"exactly threshold", 45 * time.Minute, true, "Session ended, wallet credited."},
		{"just below threshold", 45*time.Minute - time.Millisecond, false, "Session ended, duration insufficient."},
		{"thirty minutes", 30 * time.Minute, false, "Session ended, duration insufficient."},
		{"zero", 0, false, "Session ended, duration insufficient."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			session, result := f.runSession(t, tt.duration)

			assert.Equal(t, &service.EndResult{Status: "success", Paid: tt.wantPaid, Message: tt.wantMessage}, result)

			stored, ok := f.store.Session(session.ID)
			require.True(t, ok)
			assert.Equal(t, model.SessionStatusCompleted, stored.Status)
			assert.Equal(t, tt.wantPaid, stored.IsPaid)
			require.NotNil(t, stored.EndTime)
			assert.Equal(t, session.StartTime.Add(tt.duration), *stored.EndTime)
			require.NotNil(t, stored.DurationMinutes)
			assert.Equal(t, tt.duration.Minutes(), *stored.DurationMinutes)

			wallet, hasWallet := f.store.Wallet(tutorID)
			if tt.wantPaid {
				require.True(t, hasWallet)
				assert.Equal(t, service.PaymentAmount, wallet.Balance)
				assert.Equal(t, *stored.EndTime, wallet.LastUpdated)
				assert.Len(t, f.store.Transactions(), 1)
			} else {
				assert.False(t, hasWallet)
				assert.Empty(t, f.store.Transactions())
			}
		})
	}
}

func TestEndSession_DurationIsNotRounded(t *testing.T) {
	f := newFixture(t)
	session, _ := f.runSession(t, 44*time.Minute+59*time.Second+500*time.Millisecond)

	stored, _ := f.store.Session(session.ID)
	require.NotNil(t, stored.DurationMinutes)
	assert.InDelta(t, 44.991666, *stored.DurationMinutes, 1e-6)
	assert.False(t, stored.IsPaid)
}

func TestEndSession_SecondPaymentIncrementsWallet(t *testing.T) {
	f := newFixture(t)

	f.runSession(t, 50*time.Minute)
	wallet, ok := f.store.Wallet(tutorID)
	require.True(t, ok)
	assert.Equal(t, int64(50000), wallet.Balance)

	f.runSession(t, 30*time.Minute)
	wallet, _ = f.store.Wallet(tutorID)
	assert.Equal(t, int64(50000), wallet.Balance)
	assert.Len(t, f.store.Transactions(), 1)

	f.runSession(t, 60*time.Minute)
	wallet, _ = f.store.Wallet(tutorID)
	assert.Equal(t, 2*service.PaymentAmount, wallet.Balance)
	assert.Len(t, f.store.Transactions(), 2)
}

func TestEndSession_IncrementsExistingBalance(t *testing.T) {
	f := newFixture(t)
	f.store.PutWallet(model.Wallet{TutorID: tutorID, Balance: 1000})

	f.runSession(t, 50*time.Minute)

	wallet, _ := f.store.Wallet(tutorID)
	assert.Equal(t, int64(51000), wallet.Balance)
}

func TestEndSession_LedgerEntry(t *testing.T) {
	f := newFixture(t)
	session, _ := f.runSession(t, 45*time.Minute)

	stored, _ := f.store.Session(session.ID)
	transactions := f.store.Transactions()
	require.Len(t, transactions, 1)

	entry := transactions[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, tutorID, entry.WalletID)
	assert.Equal(t, service.PaymentAmount, entry.Amount)
	assert.Equal(t, model.TransactionTypeCredit, entry.Type)
	assert.Equal(t, session.ID, entry.SessionID)
	assert.Equal(t, *stored.EndTime, entry.CreatedAt)
}

func TestEndSession_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.EndSession(context.Background(), "missing", tutorID)
	require.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.EqualError(t, err, "Session not found")
}

func TestEndSession_WrongOwnerMakesNoWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, tutorID, []string{"student-1"})
	require.NoError(t, err)
	f.clock.Advance(50 * time.Minute)

	_, err = f.svc.EndSession(ctx, session.ID, "tutor-2")
	require.ErrorIs(t, err, service.ErrNotSessionOwner)
	assert.EqualError(t, err, "Unauthorized: You do not own this session")

	stored, _ := f.store.Session(session.ID)
	assert.Equal(t, model.SessionStatusActive, stored.Status)
	assert.Nil(t, stored.EndTime)
	_, hasWallet := f.store.Wallet(tutorID)
	assert.False(t, hasWallet)
	_, hasWallet = f.store.Wallet("tutor-2")
	assert.False(t, hasWallet)
	assert.Empty(t, f.store.Transactions())
}

func TestEndSession_AlreadyCompleted(t *testing.T) {
	f := newFixture(t)
	session, _ := f.runSession(t, 50*time.Minute)
	before, _ := f.store.Session(session.ID)

	f.clock.Advance(time.Hour)
	_, err := f.svc.EndSession(context.Background(), session.ID, tutorID)
	require.ErrorIs(t, err, service.ErrSessionCompleted)
	assert.EqualError(t, err, "Session is already completed")

	after, _ := f.store.Session(session.ID)
	assert.Equal(t, before, after)
	wallet, _ := f.store.Wallet(tutorID)
	assert.Equal(t, service.PaymentAmount, wallet.Balance)
	assert.Len(t, f.store.Transactions(), 1)
}

func TestEndSession_ConcurrentEndsPayOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, tutorID, []string{"student-1"})
	require.NoError(t, err)
	f.clock.Advance(50 * time.Minute)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		stale     int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.EndSession(ctx, session.ID, tutorID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrSessionCompleted):
				stale++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, stale)
	wallet, _ := f.store.Wallet(tutorID)
	assert.Equal(t, service.PaymentAmount, wallet.Balance)
	assert.Len(t, f.store.Transactions(), 1)
}

func TestEndSession_Metrics(t *testing.T) {
	f := newFixture(t)
	f.runSession(t, 50*time.Minute)
	f.runSession(t, 10*time.Minute)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsEnded.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsEnded.WithLabelValues("false")))
	assert.Equal(t, float64(service.PaymentAmount), testutil.ToFloat64(f.metrics.CreditedAmount))
}
