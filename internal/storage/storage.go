package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todo-tracker/internal/models"
)

var ErrSessionNotFound = errors.New("сессия не найдена")

// Storage интерфейс для абстракции хранилища сессий
type Storage interface {
	SaveSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error

	// Закрытие соединения
	Close() error
}

// Backend-и, которые умеет создавать New
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Options struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// TTL 0 - сессии живут, пока их не удалят явно
	TTL time.Duration
}

func New(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStorage(opts.TTL), nil
	case BackendSQLite:
		return NewSQLiteStorage(opts.SQLitePath, opts.TTL)
	case BackendRedis:
		return NewRedisStorage(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.TTL)
	default:
		return nil, fmt.Errorf("неизвестное хранилище сессий: %q", opts.Backend)
	}
}

// In-memory хранилище для разработки и тестов
type MemoryStorage struct {
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStorage) SaveSession(ctx context.Context, s *models.Session) error {
	if s.ID == "" {
		return errors.New("у сессии нет ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.ttl > 0 && m.now().Sub(s.CreatedAt) > m.ttl {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
