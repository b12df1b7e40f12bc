package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggerConfig — параметры логгера процесса.
type LoggerConfig struct {
	// Service — имя бинарника, попадает в каждую запись.
	Service string

	// Level — DEBUG, INFO, WARN или ERROR (регистр не важен).
	Level string

	// Format — "json" (default) или "text".
	Format string
}

// LoggerConfigFromEnv читает LOG_LEVEL и LOG_FORMAT.
func LoggerConfigFromEnv(service string) LoggerConfig {
	return LoggerConfig{
		Service: service,
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
	}
}

// ParseLevel преобразует имя уровня в slog.Level.
// Неизвестное имя — INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger создаёт логгер, пишущий в w.
// На уровне DEBUG в записи добавляется source.
func NewLogger(w io.Writer, cfg LoggerConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}

// SetupLogger создаёт логгер из окружения, пишущий в stdout,
// и делает его глобальным.
func SetupLogger(service string) *slog.Logger {
	logger := NewLogger(os.Stdout, LoggerConfigFromEnv(service))
	slog.SetDefault(logger)
	return logger
}

type ctxKey struct{}

// WithLogger кладёт логгер запроса в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext достаёт логгер из контекста; без него — slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}

// FromContextOr — как FromContext, но с явным запасным логгером.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// WithSyncID добавляет sync_id.
func WithSyncID(logger *slog.Logger, syncID string) *slog.Logger {
	return logger.With("sync_id", syncID)
}

// WithSchedule добавляет имя расписания.
func WithSchedule(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("schedule", name)
}

// WithMessageID добавляет message_id сообщения RabbitMQ.
func WithMessageID(logger *slog.Logger, messageID string) *slog.Logger {
	return logger.With("message_id", messageID)
}

// WithRequestID добавляет request_id HTTP-запроса.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}
