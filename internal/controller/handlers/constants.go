package handlers

// Ограничения на состав занятия
const (
	MinStudentsPerSession = 1
	MaxStudentsPerSession = 6
)

const (
	msgInternalError = "❌ Произошла ошибка. Попробуйте позже."
	msgUserNotFound  = "❌ Пользователь не найден. Используйте /start для регистрации."
)
