package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/manager"
	"todo-tracker/internal/models"
	"todo-tracker/internal/session"
)

// messenger - часть BotAPI, через которую бот отвечает в чат
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	DeleteMessage(config tgbotapi.DeleteMessageConfig) (tgbotapi.APIResponse, error)
}

type Bot struct {
	api   *tgbotapi.BotAPI
	out   messenger
	pages *manager.Registry
	gate  *session.Gate
}

func NewBot(token string, pages *manager.Registry, gate *session.Gate, debug bool) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	api.Debug = debug
	logger.Info(context.Background(), "Авторизован в Telegram", "bot", api.Self.UserName)

	return &Bot{api: api, out: api, pages: pages, gate: gate}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("ошибка получения updates: %w", err)
	}

	logger.Info(ctx, "Бот запущен и слушает сообщения...")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func chatPageID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx = logger.WithRequestID(ctx, fmt.Sprintf("tg-%d-%d", msg.Chat.ID, msg.MessageID))
	logger.Info(ctx, "Получено сообщение", "chatID", msg.Chat.ID, "command", msg.Command())

	if !msg.IsCommand() {
		// обычный текст добавляется как задача без срока
		if strings.TrimSpace(msg.Text) != "" {
			b.addTask(ctx, msg.Chat.ID, msg.Text)
		}
		return
	}

	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(chatID, helpText)
	case "login":
		b.authenticate(ctx, msg, manager.ModeLogin, args)
	case "signup":
		b.authenticate(ctx, msg, manager.ModeSignup, args)
	case "logout":
		b.logout(ctx, chatID)
	case "list":
		b.listTasks(ctx, chatID)
	case "add":
		if args == "" {
			b.sendPlain(chatID, "Укажите задачу после команды: /add Купить молоко | 2026-03-10T18:00")
			return
		}
		b.addTask(ctx, chatID, args)
	case "done":
		b.setStatus(ctx, chatID, args, true)
	case "undo":
		b.setStatus(ctx, chatID, args, false)
	case "delete":
		b.deleteTask(ctx, chatID, args)
	case "week":
		b.week(ctx, chatID)
	default:
		b.sendPlain(chatID, "Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (b *Bot) authenticate(ctx context.Context, msg *tgbotapi.Message, mode manager.Mode, args string) {
	chatID := msg.Chat.ID
	// пароль не должен оставаться в истории чата
	defer b.deleteMessage(ctx, msg)

	email, password := parseCredentials(args)
	p := b.pages.Acquire(chatPageID(chatID))
	if err := p.Auth.SetMode(mode); err != nil {
		b.sendPlain(chatID, "❌ "+err.Error())
		return
	}

	res, err := p.Auth.Submit(ctx, email, password)
	if err != nil {
		if errors.Is(err, manager.ErrSubmitInProgress) {
			b.sendPlain(chatID, "⏳ Запрос уже выполняется")
			return
		}
		b.sendPlain(chatID, "❌ "+manager.FeedbackFor(err).Text)
		return
	}

	if res.Session != nil {
		p.Attach(res.Session)
	}
	b.sendPlain(chatID, "✅ "+res.Feedback.Text)
}

// current возвращает страницу чата с проверенной (при необходимости обновленной) сессией
func (b *Bot) current(ctx context.Context, chatID int64) (*manager.PageSession, bool) {
	p, ok := b.pages.Get(chatPageID(chatID))
	if !ok || p.Session() == nil {
		b.sendPlain(chatID, "🔒 Сначала войдите: /login email пароль")
		return nil, false
	}

	s, err := b.gate.Resolve(ctx, p.Session().ID)
	if err != nil {
		p.Detach()
		b.sendPlain(chatID, "🔒 Сессия истекла, войдите снова: /login email пароль")
		return nil, false
	}
	p.Attach(s)
	return p, true
}

func (b *Bot) logout(ctx context.Context, chatID int64) {
	p, ok := b.pages.Get(chatPageID(chatID))
	if ok {
		_ = p.Auth.SignOut(ctx, p.Detach())
		b.pages.Forget(p.ID)
	}
	b.sendPlain(chatID, "👋 Вы вышли из аккаунта")
}

func (b *Bot) listTasks(ctx context.Context, chatID int64) {
	p, ok := b.current(ctx, chatID)
	if !ok {
		return
	}

	tasks := p.Tasks()
	if err := tasks.LoadAll(ctx); err != nil {
		return
	}
	b.sendPlain(chatID, formatBoard(tasks.Board().View(), p.Session().User.Email))
}

func (b *Bot) addTask(ctx context.Context, chatID int64, text string) {
	p, ok := b.current(ctx, chatID)
	if !ok {
		return
	}

	title, deadline := parseAddArgs(text)
	task, err := p.Tasks().Add(ctx, title, deadline)
	if err != nil {
		var ve *manager.ValidationError
		if errors.As(err, &ve) {
			b.sendPlain(chatID, "❌ "+ve.Message)
		}
		return
	}

	b.sendPlain(chatID, fmt.Sprintf("✅ Задача добавлена!\n\n%s", formatTask(task)))
}

func (b *Bot) setStatus(ctx context.Context, chatID int64, args string, completed bool) {
	p, ok := b.current(ctx, chatID)
	if !ok {
		return
	}

	id := models.TaskID(strings.TrimSpace(args))
	if id == "" {
		b.sendPlain(chatID, "Укажите номер задачи: /done 1")
		return
	}
	if err := p.Tasks().Toggle(ctx, id, completed); err != nil {
		return
	}

	if completed {
		b.sendPlain(chatID, fmt.Sprintf("✅ Задача #%s отмечена выполненной!", id))
	} else {
		b.sendPlain(chatID, fmt.Sprintf("↩️ Задача #%s снова в работе", id))
	}
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, args string) {
	p, ok := b.current(ctx, chatID)
	if !ok {
		return
	}

	id := models.TaskID(strings.TrimSpace(args))
	if id == "" {
		b.sendPlain(chatID, "Укажите номер задачи: /delete 1")
		return
	}
	if err := p.Tasks().Remove(ctx, id); err != nil {
		return
	}
	b.sendPlain(chatID, fmt.Sprintf("🗑️ Задача #%s удалена!", id))
}

func (b *Bot) week(ctx context.Context, chatID int64) {
	p, ok := b.current(ctx, chatID)
	if !ok {
		return
	}

	progress := p.Progress()
	if _, err := progress.LoadWeek(ctx); err != nil {
		return
	}
	b.sendPlain(chatID, formatWeek(progress.Data()))
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.send(msg)
}

// sendPlain - для текста с пользовательскими данными, которые ломают Markdown
func (b *Bot) sendPlain(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) deleteMessage(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.out.DeleteMessage(tgbotapi.DeleteMessageConfig{ChatID: msg.Chat.ID, MessageID: msg.MessageID}); err != nil {
		logger.Warn(ctx, "Не удалось удалить сообщение с паролем", "chatID", msg.Chat.ID, "error", err.Error())
	}
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.out.Send(msg); err != nil {
		logger.Error(context.Background(), err, "Ошибка отправки сообщения", "chatID", msg.ChatID)
	}
}
