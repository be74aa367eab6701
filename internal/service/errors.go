package service

import "errors"

// ErrorKind классифицирует ошибки ядра для маппинга в шлюзах
type ErrorKind string

const (
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindState        ErrorKind = "state"
)

// Error ошибка ядра. Message показывается вызывающему как есть.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrActiveSession    = &Error{Kind: KindConflict, Message: "Tutor already has an active session"}
	ErrSessionNotFound  = &Error{Kind: KindNotFound, Message: "Session not found"}
	ErrNotSessionOwner  = &Error{Kind: KindUnauthorized, Message: "Unauthorized: You do not own this session"}
	ErrSessionCompleted = &Error{Kind: KindState, Message: "Session is already completed"}
)

// AsError извлекает ошибку ядра из цепочки
func AsError(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
