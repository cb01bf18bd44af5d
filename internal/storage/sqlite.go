package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/models"

	_ "modernc.org/sqlite"
)

// Schema - таблица локальных сессий; ее же создает `tasktracker migrate`
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	email TEXT NOT NULL,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at DATETIME,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);`

type SQLiteStorage struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteStorage(dbPath string, ttl time.Duration) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(context.Background(), "SQLite хранилище сессий инициализировано", "path", dbPath)
	return &SQLiteStorage{db: db, ttl: ttl}, nil
}

// Migrate создает таблицы, если их еще нет
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("ошибка создания таблицы sessions: %w", err)
	}
	return nil
}

// Закрытие соединения
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) SaveSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return errors.New("у сессии нет ID")
	}

	query := `
	INSERT INTO sessions (id, user_id, email, access_token, refresh_token, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		email = excluded.email,
		access_token = excluded.access_token,
		refresh_token = excluded.refresh_token,
		expires_at = excluded.expires_at`

	var expiresAt interface{}
	if !session.ExpiresAt.IsZero() {
		expiresAt = session.ExpiresAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.User.ID, session.User.Email,
		session.AccessToken, session.RefreshToken, expiresAt, session.CreatedAt.UTC(),
	)
	return err
}

func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `
	SELECT id, user_id, email, access_token, refresh_token, expires_at, created_at
	FROM sessions WHERE id = ?`

	var session models.Session
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.User.ID, &session.User.Email,
		&session.AccessToken, &session.RefreshToken, &expiresAt, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}

	if s.ttl > 0 && time.Since(session.CreatedAt) > s.ttl {
		if err := s.DeleteSession(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

func (s *SQLiteStorage) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}
