package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutorpay/internal/controller/state"
	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var (
	errNoStudents       = fmt.Errorf("укажите хотя бы %d ученика", MinStudentsPerSession)
	errTooManyStudents  = fmt.Errorf("в занятии может быть не больше %d учеников", MaxStudentsPerSession)
	errDuplicateStudent = errors.New("ученики не должны повторяться")
)

// HandleStartSession обрабатывает команду /startsession id1 id2 ...
func (h *Handlers) HandleStartSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		// Без аргументов спрашиваем список отдельным сообщением
		h.stateManager.SetState(update.Message.From.ID, state.StateAwaitingStudentIDs)
		h.reply(ctx, b, update.Message.Chat.ID,
			fmt.Sprintf("👥 Введите ID учеников через пробел (от %d до %d).\n\nОтмена: /cancel",
				MinStudentsPerSession, MaxStudentsPerSession))
		return
	}

	h.startSession(ctx, b, update, user, args)
}

// handleStudentIDsStep принимает список учеников после /startsession без аргументов
func (h *Handlers) handleStudentIDsStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTutor(ctx, b, update)
	if !ok {
		h.stateManager.ClearState(update.Message.From.ID)
		return
	}

	h.startSession(ctx, b, update, user, strings.Fields(update.Message.Text))
}

func (h *Handlers) startSession(ctx context.Context, b *bot.Bot, update *models.Update, user *model.User, args []string) {
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	studentIDs, err := parseStudentIDs(args)
	if err != nil {
		h.reply(ctx, b, chatID, "❌ "+err.Error()+"\n\nПример: /startsession s1 s2")
		return
	}

	session, err := h.sessionService.StartSession(ctx, user.ID, studentIDs)

	// Диалог закрывается при любом исходе старта
	h.stateManager.ClearState(telegramID)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.stateManager.RememberSession(telegramID, session.ID)
	h.reply(ctx, b, chatID, FormatSessionStarted(session))
}

// HandleEndSession обрабатывает команду /endsession [id]
func (h *Handlers) HandleEndSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	sessionID, ok := h.resolveSessionID(telegramID, commandArgs(update.Message.Text))
	if !ok {
		h.reply(ctx, b, chatID, "❌ Не указано занятие.\n\nИспользование: /endsession <id>")
		return
	}

	result, err := h.sessionService.EndSession(ctx, sessionID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrSessionCompleted) || errors.Is(err, service.ErrSessionNotFound) {
			h.stateManager.ForgetSession(telegramID, sessionID)
		}
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.stateManager.ForgetSession(telegramID, sessionID)
	h.reply(ctx, b, chatID, FormatEndResult(result))
}

// resolveSessionID берёт id из аргумента или последнее начатое занятие
func (h *Handlers) resolveSessionID(telegramID int64, args []string) (string, bool) {
	if len(args) > 0 {
		return args[0], true
	}
	return h.stateManager.ActiveSession(telegramID)
}

// commandArgs возвращает аргументы команды без самой команды
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return fields
	}
	return fields[1:]
}

// parseStudentIDs проверяет количество и уникальность учеников
func parseStudentIDs(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	seen := make(map[string]struct{}, len(args))

	for _, arg := range args {
		// Разрешаем перечисление через запятую
		for _, id := range strings.Split(arg, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				return nil, errDuplicateStudent
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	switch {
	case len(ids) < MinStudentsPerSession:
		return nil, errNoStudents
	case len(ids) > MaxStudentsPerSession:
		return nil, errTooManyStudents
	}

	return ids, nil
}

// FormatSessionStarted форматирует начатое занятие
func FormatSessionStarted(session *model.Session) string {
	return fmt.Sprintf(
		"▶️ Занятие начато\n\n"+
			"🆔 %s\n"+
			"👥 Ученики: %s\n"+
			"🕐 Начало: %s\n\n"+
			"Завершить: /endsession",
		session.ID,
		strings.Join(session.StudentIDs, ", "),
		session.StartTime.Format("02.01.2006 15:04"),
	)
}

// FormatEndResult форматирует итог завершения занятия
func FormatEndResult(result *service.EndResult) string {
	if result.Paid {
		return fmt.Sprintf("✅ Занятие завершено, на кошелёк начислено %s.\n\n%s",
			FormatAmount(service.PaymentAmount), result.Message)
	}
	return fmt.Sprintf("⏹ Занятие завершено без оплаты: меньше %.0f минут.\n\n%s",
		service.MinDurationMinutes, result.Message)
}

// FormatAmount форматирует сумму из копеек в рубли
func FormatAmount(amountInCents int64) string {
	rubles := amountInCents / 100
	kopecks := amountInCents % 100
	if kopecks == 0 {
		return fmt.Sprintf("%d ₽", rubles)
	}
	return fmt.Sprintf("%d.%02d ₽", rubles, kopecks)
}
