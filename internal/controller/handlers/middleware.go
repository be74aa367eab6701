package handlers

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// sender отправитель и чат текстового сообщения
func sender(update *models.Update) (telegramID, chatID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.From.ID, update.Message.Chat.ID, true
}

// requireUser находит отправителя среди зарегистрированных.
// Незарегистрированному отвечает подсказкой про /start.
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	telegramID, chatID, ok := sender(update)
	if !ok {
		return nil, false
	}

	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.reply(ctx, b, chatID, msgInternalError)
		return nil, false
	}

	if user == nil {
		h.reply(ctx, b, chatID, msgUserNotFound)
		return nil, false
	}

	return user, true
}

// requireTutor пропускает только учителей, ученику подсказывает /becometutor
func (h *Handlers) requireTutor(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsTutor() {
		h.logger.Debug("Session command from non-tutor",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
		h.reply(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"❌ %s, занятия могут начинать и завершать только учителя.\n\nСтать учителем: /becometutor",
			displayName(user),
		))
		return nil, false
	}

	return user, true
}

// replyError показывает ошибку ядра как есть, остальные логирует и скрывает
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	if domainErr, ok := service.AsError(err); ok {
		h.reply(ctx, b, chatID, "❌ "+domainErr.Message)
		return
	}

	h.logger.Error("Session operation failed", zap.Int64("chat_id", chatID), zap.Error(err))
	h.reply(ctx, b, chatID, msgInternalError)
}

// reply отправляет текст в чат, ошибка отправки только логируется
func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func displayName(user *model.User) string {
	switch {
	case user.FirstName != "":
		return user.FirstName
	case user.Username != "":
		return user.Username
	default:
		return "Пользователь"
	}
}
