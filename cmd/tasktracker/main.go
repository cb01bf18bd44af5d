package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	server "todo-tracker"
	"todo-tracker/internal/app"
	"todo-tracker/internal/config"
	"todo-tracker/internal/logger"
	"todo-tracker/internal/session"
	"todo-tracker/internal/storage"
	"todo-tracker/internal/web"
)

const (
	pageIdleTimeout = 2 * time.Hour
	shutdownTimeout = 30 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	// .env необязателен, переменные окружения важнее
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "serve":
		err = handleServeCommand(os.Args[2:])
	case "migrate":
		err = handleMigrateCommand(os.Args[2:])
	case "help", "-h", "--help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleServeCommand(args []string) error {
	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	configDir := serveCmd.String("config", ".", "Directory with the .env file")
	addr := serveCmd.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Parse(args)

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, _ := cfg.Location()
	site, err := web.NewServer(web.Options{
		Pages:    a.Pages,
		Gate:     a.Gate,
		Sessions: a.Store,
		Cookies:  session.Cookies{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL},
		Location: loc,
	})
	if err != nil {
		return err
	}

	go a.Pages.Run(ctx, pageIdleTimeout)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(site),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP сервер запущен", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	logger.Info(shutdownCtx, "Сервер остановлен")
	return nil
}

// handleMigrateCommand создает схему SQLite хранилища сессий
func handleMigrateCommand(args []string) error {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	configDir := migrateCmd.String("config", ".", "Directory with .env")
	dbPath := migrateCmd.String("db", "", "SQLite file (defaults to SQLITE_PATH)")
	migrateCmd.Parse(args)

	ctx := context.Background()
	path := *dbPath
	if path == "" {
		cfg, err := config.Read(*configDir)
		if err != nil {
			return err
		}
		path = cfg.SQLitePath
	}

	logger.Info(ctx, "🔄 Миграция хранилища сессий", "path", path)
	st, err := storage.NewSQLiteStorage(path, 0)
	if err != nil {
		return fmt.Errorf("ошибка миграции: %w", err)
	}
	defer st.Close()

	logger.Info(ctx, "✅ Миграция завершена", "path", path)
	return nil
}

func printHelp() {
	fmt.Println(`Usage: tasktracker <command> [flags]

Commands:
  serve   [--config=DIR] [--addr=:8080]  Run the web app
  migrate [--config=DIR] [--db=FILE]     Create the SQLite session schema

Configuration:
  Settings are read from .env in the config directory and from the environment.
  SUPABASE_URL and SUPABASE_ANON_KEY are required for serve.`)
}
