package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/metrics"
	"github.com/Freeeeeet/tutorpay/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Политика оплаты, меняется только пересборкой
const (
	PaymentAmount      int64   = 50000
	MinDurationMinutes float64 = 45
)

const (
	MessageWalletCredited       = "Session ended, wallet credited."
	MessageDurationInsufficient = "Session ended, duration insufficient."
)

var tracer = otel.Tracer("github.com/Freeeeeet/tutorpay/internal/service")

// EndResult результат завершения занятия
type EndResult struct {
	Status  string `json:"status"`
	Paid    bool   `json:"paid"`
	Message string `json:"message"`
}

type SessionService struct {
	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewSessionService(store Store, m *metrics.Metrics, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// StartSession начинает занятие, если у учителя нет активного
func (s *SessionService) StartSession(ctx context.Context, tutorID string, studentIDs []string) (*model.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionService.StartSession",
		trace.WithAttributes(attribute.String("tutor.id", tutorID)))
	defer span.End()

	var session *model.Session
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		// Проверка и вставка под одной блокировкой учителя
		if err := tx.LockTutor(ctx, tutorID); err != nil {
			return fmt.Errorf("lock tutor: %w", err)
		}

		active, err := tx.ActiveSessions(ctx, tutorID)
		if err != nil {
			return fmt.Errorf("get active sessions: %w", err)
		}
		if len(active) > 0 {
			return ErrActiveSession
		}

		session = &model.Session{
			TutorID:    tutorID,
			StudentIDs: append([]string(nil), studentIDs...),
			StartTime:  s.now(),
			Status:     model.SessionStatusActive,
			IsPaid:     false,
		}
		if err := tx.CreateSession(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		if domainErr, ok := AsError(err); ok && domainErr.Kind == KindConflict {
			s.metrics.ObserveConflict()
		}
		recordSpanError(span, err)
		return nil, err
	}

	s.metrics.ObserveStart()
	span.SetAttributes(attribute.String("session.id", session.ID))
	s.logger.Info("Session started",
		zap.String("session_id", session.ID),
		zap.String("tutor_id", tutorID),
		zap.Int("students", len(session.StudentIDs)),
	)

	return session, nil
}

// EndSession завершает занятие и при достаточной длительности начисляет оплату.
// Все чтения и записи выполняются в одной транзакции.
func (s *SessionService) EndSession(ctx context.Context, sessionID, callerID string) (*EndResult, error) {
	ctx, span := tracer.Start(ctx, "SessionService.EndSession",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("caller.id", callerID),
		))
	defer span.End()

	var (
		result   *EndResult
		duration float64
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		session, err := tx.SessionForUpdate(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.TutorID != callerID {
			return ErrNotSessionOwner
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		endTime := s.now()
		duration = endTime.Sub(session.StartTime).Minutes()

		session.Status = model.SessionStatusCompleted
		session.EndTime = &endTime
		session.DurationMinutes = &duration
		session.IsPaid = false

		if duration < MinDurationMinutes {
			if err := tx.CompleteSession(ctx, session); err != nil {
				return fmt.Errorf("complete session: %w", err)
			}
			result = &EndResult{Status: "success", Paid: false, Message: MessageDurationInsufficient}
			return nil
		}

		wallet, err := tx.WalletForUpdate(ctx, session.TutorID)
		if err != nil {
			return fmt.Errorf("get wallet: %w", err)
		}

		session.IsPaid = true
		if err := tx.CompleteSession(ctx, session); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}

		if wallet == nil {
			err = tx.CreateWallet(ctx, &model.Wallet{
				TutorID:     session.TutorID,
				Balance:     PaymentAmount,
				LastUpdated: endTime,
			})
			if err != nil {
				return fmt.Errorf("create wallet: %w", err)
			}
		} else {
			if err := tx.IncrementWallet(ctx, session.TutorID, PaymentAmount, endTime); err != nil {
				return fmt.Errorf("increment wallet: %w", err)
			}
		}

		err = tx.CreateTransaction(ctx, &model.Transaction{
			WalletID:  session.TutorID,
			Amount:    PaymentAmount,
			Type:      model.TransactionTypeCredit,
			SessionID: session.ID,
			CreatedAt: endTime,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		result = &EndResult{Status: "success", Paid: true, Message: MessageWalletCredited}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.metrics.ObserveEnd(result.Paid, PaymentAmount)
	span.SetAttributes(attribute.Bool("session.paid", result.Paid))
	s.logger.Info("Session ended",
		zap.String("session_id", sessionID),
		zap.String("tutor_id", callerID),
		zap.Float64("duration_minutes", duration),
		zap.Bool("paid", result.Paid),
	)

	return result, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
