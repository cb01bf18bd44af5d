package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"todo-tracker/internal/app"
	"todo-tracker/internal/config"
	"todo-tracker/internal/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки конфигурации")
		os.Exit(1)
	}
	if cfg.TelegramBotToken == "" {
		logger.Error(ctx, errors.New("TELEGRAM_BOT_TOKEN не задан"), "Бот не может стартовать")
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error(ctx, err, "Ошибка инициализации")
		os.Exit(1)
	}
	defer a.Close()

	logger.Info(ctx, "Запуск Telegram-бота...")

	bot, err := NewBot(cfg.TelegramBotToken, a.Pages, a.Gate, !cfg.IsProduction() && cfg.LogLevel == "debug")
	if err != nil {
		logger.Error(ctx, err, "Ошибка создания бота")
		return
	}

	if err := bot.Start(ctx); err != nil {
		logger.Error(ctx, err, "Бот остановлен с ошибкой")
	}
	logger.Info(context.Background(), "Бот остановлен")
}
