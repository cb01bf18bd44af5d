package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level совпадает по значениям с zapcore.Level
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// Options настраивает вывод логгера
type Options struct {
	Level string
	// File - путь к файлу лога с ротацией, пусто - только консоль
	File string
}

type requestIDKey struct{}

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base  = newSugar(zapcore.AddSync(os.Stdout), nil)
)

func newSugar(console, file zapcore.WriteSyncer) *zap.SugaredLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), console, level),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), file, level))
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// Init пересоздает логгер: консоль + опционально файл через lumberjack
func Init(opts Options) error {
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("неизвестный уровень логирования %q: %w", opts.Level, err)
		}
		level.SetLevel(lvl)
	}

	var file zapcore.WriteSyncer
	if opts.File != "" {
		file = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 30,
			MaxAge:     90, // days
		})
	}
	base = newSugar(zapcore.AddSync(os.Stdout), file)
	return nil
}

// SetOutput перенаправляет консольный вывод (используется в тестах)
func SetOutput(w io.Writer) {
	base = newSugar(zapcore.AddSync(w), nil)
}

func SetLevel(l Level) {
	level.SetLevel(zapcore.Level(l))
}

func Sync() {
	_ = base.Sync()
}

// WithRequestID кладет идентификатор запроса в контекст
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withContext(ctx context.Context, kv []interface{}) []interface{} {
	if ctx == nil {
		return kv
	}
	if id := RequestID(ctx); id != "" {
		return append([]interface{}{"request_id", id}, kv...)
	}
	return kv
}

func Debug(ctx context.Context, msg string, kv ...interface{}) {
	base.Debugw(msg, withContext(ctx, kv)...)
}

func Info(ctx context.Context, msg string, kv ...interface{}) {
	base.Infow(msg, withContext(ctx, kv)...)
}

func Warn(ctx context.Context, msg string, kv ...interface{}) {
	base.Warnw(msg, withContext(ctx, kv)...)
}

// Error пишет сообщение вида "msg: err"; err может быть nil
func Error(ctx context.Context, err error, msg string, kv ...interface{}) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	base.Errorw(msg, withContext(ctx, kv)...)
}
