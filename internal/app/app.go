// Package app собирает зависимости, общие для веб-сервера и бота.
package app

import (
	"context"
	"fmt"

	"todo-tracker/internal/chart"
	"todo-tracker/internal/config"
	"todo-tracker/internal/logger"
	"todo-tracker/internal/manager"
	"todo-tracker/internal/models"
	"todo-tracker/internal/remote"
	"todo-tracker/internal/session"
	"todo-tracker/internal/storage"
)

type App struct {
	Config *config.Config
	Store  storage.Storage
	Remote *remote.Client
	Gate   *session.Gate
	Pages  *manager.Registry
}

// New настраивает логгер и открывает хранилище сессий; Close обязателен
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	// колонки timestamp без зоны читаются в той же зоне, что и срочность и недельные корзины
	models.SetLocation(loc)

	client, err := remote.New(cfg.RemoteOptions())
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища сессий: %w", err)
	}
	logger.Info(ctx, "Хранилище сессий готово", "backend", cfg.SessionBackend)

	pages := manager.NewRegistry(manager.Deps{
		Remote:   client,
		Store:    store,
		Renderer: chart.NewSVGRenderer(),
		Location: loc,
	})

	return &App{
		Config: cfg,
		Store:  store,
		Remote: client,
		Gate:   session.NewGate(store, client, cfg.SupabaseJWTSecret),
		Pages:  pages,
	}, nil
}

func (a *App) Close() error {
	logger.Sync()
	return a.Store.Close()
}
