// Package config загружает настройки из .env и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"todo-tracker/internal/remote"
	"todo-tracker/internal/storage"
)

type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	// Размещенный сервис
	SupabaseURL       string        `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey   string        `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string        `mapstructure:"SUPABASE_JWT_SECRET"`
	RemoteTimeout     time.Duration `mapstructure:"REMOTE_TIMEOUT"`

	// Сессии
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SQLitePath     string        `mapstructure:"SQLITE_PATH"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`

	Timezone         string `mapstructure:"TIMEZONE"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
}

var defaults = map[string]interface{}{
	"APP_ENV":             "development",
	"HTTP_ADDR":           ":8080",
	"LOG_LEVEL":           "info",
	"LOG_FILE":            "",
	"SUPABASE_URL":        "",
	"SUPABASE_ANON_KEY":   "",
	"SUPABASE_JWT_SECRET": "",
	"REMOTE_TIMEOUT":      "0s",
	"SESSION_BACKEND":     storage.BackendMemory,
	"SQLITE_PATH":         "data/sessions.db",
	"REDIS_ADDR":          "localhost:6379",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"SESSION_TTL":         "168h",
	"COOKIE_SECURE":       false,
	"TIMEZONE":            "",
	"TELEGRAM_BOT_TOKEN":  "",
}

// LoadConfig читает path/.env, если он есть; переменные окружения важнее файла
func LoadConfig(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read читает настройки без Validate; нужен командам, которым сервис не нужен (migrate)
func Read(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
		return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required")
	}
	switch c.SessionBackend {
	case storage.BackendMemory:
	case storage.BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when SESSION_BACKEND=sqlite")
		}
	case storage.BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of: memory, sqlite, redis (got %q)", c.SessionBackend)
	}
	if c.RemoteTimeout < 0 || c.SessionTTL < 0 {
		return errors.New("REMOTE_TIMEOUT and SESSION_TTL must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location - зона для окна прогресса; пустой TIMEZONE означает локальное время сервера
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.SessionBackend,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		TTL:           c.SessionTTL,
	}
}

func (c *Config) RemoteOptions() remote.Options {
	return remote.Options{
		URL:     c.SupabaseURL,
		APIKey:  c.SupabaseAnonKey,
		Timeout: c.RemoteTimeout,
	}
}
