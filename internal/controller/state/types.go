package state

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Ожидаем список учеников для нового занятия
	StateAwaitingStudentIDs UserState = "awaiting_student_ids"
)

// UserData хранит данные пользователя между сообщениями
type UserData struct {
	State           UserState
	ActiveSessionID string // Последнее начатое через бота занятие
}
