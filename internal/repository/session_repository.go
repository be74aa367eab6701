package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/repository/base"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const activeSessionIndex = "sessions_one_active_per_tutor"

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(q base.Querier) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(q)}
}

// LockTutor берёт advisory lock учителя до конца транзакции
func (r *SessionRepository) LockTutor(ctx context.Context, tutorID string) error {
	if _, err := r.ExecAffected(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tutorID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

// Create создаёт новое занятие
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (id, tutor_id, student_ids, start_time, status, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	id := uuid.NewString()
	_, err := r.ExecAffected(
		ctx, query,
		id,
		session.TutorID,
		session.StudentIDs,
		session.StartTime,
		session.Status,
		session.IsPaid,
	)
	if err != nil {
		if base.IsUniqueViolation(err, activeSessionIndex) {
			return service.ErrActiveSession
		}
		return fmt.Errorf("insert session: %w", err)
	}

	session.ID = id
	return nil
}

// GetActiveByTutorID получает активные занятия учителя
func (r *SessionRepository) GetActiveByTutorID(ctx context.Context, tutorID string) ([]*model.Session, error) {
	query := `
		SELECT id, tutor_id, student_ids, start_time, end_time, status, is_paid, duration_minutes
		FROM sessions
		WHERE tutor_id = $1 AND status = 'active'
	`

	rows, err := r.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get active sessions by tutor: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// GetByIDForUpdate получает занятие с блокировкой строки
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	query := `
		SELECT id, tutor_id, student_ids, start_time, end_time, status, is_paid, duration_minutes
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`

	session, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return session, nil
}

// Complete переводит активное занятие в completed
func (r *SessionRepository) Complete(ctx context.Context, session *model.Session) error {
	query := `
		UPDATE sessions
		SET status = $2, end_time = $3, duration_minutes = $4, is_paid = $5
		WHERE id = $1 AND status = 'active'
	`

	affected, err := r.ExecAffected(
		ctx, query,
		session.ID,
		session.Status,
		session.EndTime,
		session.DurationMinutes,
		session.IsPaid,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if affected == 0 {
		return service.ErrSessionCompleted
	}

	return nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var session model.Session
	err := row.Scan(
		&session.ID,
		&session.TutorID,
		&session.StudentIDs,
		&session.StartTime,
		&session.EndTime,
		&session.Status,
		&session.IsPaid,
		&session.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
