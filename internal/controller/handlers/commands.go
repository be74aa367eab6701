package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutorpay/internal/controller/state"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterTelegramUser(ctx, user.ID, user.Username, user.FirstName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это TutorPay - бот для учёта занятий и оплаты учителям.\n"+
			"Ваш ID: %s\n\n"+
			"Доступные команды:\n"+
			"/help - Справка\n\n"+
			"Для учителей:\n"+
			"/becometutor - Стать учителем\n"+
			"/startsession - Начать занятие\n"+
			"/endsession - Завершить занятие",
		registeredUser.FirstName,
		registeredUser.ID,
	)

	h.reply(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Зарегистрироваться\n" +
		"/help - Показать эту справку\n" +
		"/cancel - Отменить текущий ввод\n\n" +
		"Для учителей:\n" +
		"/becometutor - Зарегистрироваться как учитель\n" +
		"/startsession id1 id2 ... - Начать занятие (от 1 до 6 учеников)\n" +
		"/endsession [id] - Завершить занятие\n\n" +
		fmt.Sprintf("Занятие от %.0f минут оплачивается автоматически.", service.MinDurationMinutes)

	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleBecomeTutor обрабатывает команду /becometutor
func (h *Handlers) HandleBecomeTutor(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if user.IsTutor() {
		h.reply(ctx, b, update.Message.Chat.ID, "✅ Вы уже учитель.")
		return
	}

	if err := h.userService.MakeTutor(ctx, update.Message.From.ID); err != nil {
		h.logger.Error("Failed to make tutor", zap.String("user_id", user.ID), zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, msgInternalError)
		return
	}

	h.reply(ctx, b, update.Message.Chat.ID,
		"🎓 Теперь вы учитель!\n\nНачать занятие: /startsession id1 id2 ...")
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.reply(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.")
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	switch currentState {
	case state.StateNone:
		return
	case state.StateAwaitingStudentIDs:
		h.handleStudentIDsStep(ctx, b, update)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}
