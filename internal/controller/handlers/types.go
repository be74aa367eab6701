package handlers

import (
	"github.com/Freeeeeet/tutorpay/internal/controller/state"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService    *service.UserService
	sessionService *service.SessionService
	stateManager   *state.Manager
	logger         *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	sessionService *service.SessionService,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:    userService,
		sessionService: sessionService,
		stateManager:   stateManager,
		logger:         logger,
	}
}
