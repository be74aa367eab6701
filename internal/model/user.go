package model

import "time"

type Role string

const (
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

type User struct {
	ID         string    `json:"id"`
	TelegramID *int64    `json:"telegram_id,omitempty"` // nil для пользователей без Telegram
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsTutor проверяет роль учителя
func (u *User) IsTutor() bool {
	return u.Role == RoleTutor
}
