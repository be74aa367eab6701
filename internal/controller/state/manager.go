package state

import (
	"sync"
)

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entry(telegramID).State = state
	sm.cleanup(telegramID)
}

// ClearState сбрасывает диалог, запомненное занятие остаётся
func (sm *Manager) ClearState(telegramID int64) {
	sm.SetState(telegramID, StateNone)
}

// ActiveSession возвращает запомненное занятие пользователя
func (sm *Manager) ActiveSession(telegramID int64) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists && userData.ActiveSessionID != "" {
		return userData.ActiveSessionID, true
	}
	return "", false
}

// RememberSession запоминает начатое занятие
func (sm *Manager) RememberSession(telegramID int64, sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entry(telegramID).ActiveSessionID = sessionID
}

// ForgetSession забывает занятие, если запомнено именно оно
func (sm *Manager) ForgetSession(telegramID int64, sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if userData, exists := sm.states[telegramID]; exists && userData.ActiveSessionID == sessionID {
		userData.ActiveSessionID = ""
		sm.cleanup(telegramID)
	}
}

func (sm *Manager) entry(telegramID int64) *UserData {
	userData, exists := sm.states[telegramID]
	if !exists {
		userData = &UserData{}
		sm.states[telegramID] = userData
	}
	return userData
}

// cleanup удаляет пустую запись
func (sm *Manager) cleanup(telegramID int64) {
	if userData, exists := sm.states[telegramID]; exists && *userData == (UserData{}) {
		delete(sm.states, telegramID)
	}
}
