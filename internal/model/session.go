package model

import "time"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"    // Занятие идёт
	SessionStatusCompleted SessionStatus = "completed" // Завершено, терминальный статус
)

type Session struct {
	ID              string        `json:"sessionId"`
	TutorID         string        `json:"tutorId"`
	StudentIDs      []string      `json:"studentIds"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         *time.Time    `json:"endTime,omitempty"` // nil пока занятие активно
	Status          SessionStatus `json:"status"`
	IsPaid          bool          `json:"isPaid"`
	DurationMinutes *float64      `json:"durationMinutes,omitempty"` // без округления
}

// IsCompleted сообщает, что занятие уже закрыто
func (s *Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}
