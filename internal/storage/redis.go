package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"todo-tracker/internal/models"
)

const redisKeyPrefix = "todotracker:session:"

type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStorage(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверяем соединение
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis недоступен: %w", err)
	}

	return &RedisStorage{client: client, ttl: ttl, now: time.Now}, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, s *models.Session) error {
	if s.ID == "" {
		return errors.New("у сессии нет ID")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+s.ID, data, r.expiration(s)).Err()
}

// expiration - остаток TTL от CreatedAt, как у memory и sqlite; повторное сохранение срок не продлевает
func (r *RedisStorage) expiration(s *models.Session) time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	left := r.ttl - r.now().Sub(s.CreatedAt)
	if left < time.Millisecond {
		return time.Millisecond
	}
	return left
}

func (r *RedisStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("поврежденная сессия %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
