package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"twcompany/server/middleware"
)

var (
	// Logger глобальный структурированный логгер
	Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo, AddSource: true}))
)

// ParseLevel переводит LOG_LEVEL в уровень slog. Неизвестное значение дает INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger настраивает JSON логгер и делает его логгером по умолчанию
func InitLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true, // Добавляем информацию об источнике (файл, строка)
	}

	Logger = slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(Logger)
	return Logger
}

// LogError логирует ошибку с контекстом из запроса
func LogError(ctx context.Context, err error, msg string, attrs ...any) {
	attrs = append(attrs, "error", err, "request_id", middleware.GetRequestID(ctx))
	Logger.Error(msg, attrs...)
}

// LogInfo логирует информационное сообщение
func LogInfo(ctx context.Context, msg string, attrs ...any) {
	attrs = append(attrs, "request_id", middleware.GetRequestID(ctx))
	Logger.Info(msg, attrs...)
}

// LogDuration логирует продолжительность выполнения операции
func LogDuration(ctx context.Context, operation string, duration time.Duration, attrs ...any) {
	attrs = append(attrs, "request_id", middleware.GetRequestID(ctx), "duration_ms", duration.Milliseconds())
	Logger.Info(operation+" completed", attrs...)
}
