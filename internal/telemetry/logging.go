package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ParseLevel разбирает уровень логирования: DEBUG, INFO, WARN, ERROR
// (регистр не важен). Пустое или неизвестное значение — INFO.
func ParseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LogLevel возвращает уровень из LOG_LEVEL.
func LogLevel() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// SetupLogger создаёт логгер процесса и делает его slog.Default().
// LOG_FORMAT=text включает текстовый формат, иначе JSON.
func SetupLogger(service string) *slog.Logger {
	logger := NewLogger(os.Stdout, os.Getenv("LOG_FORMAT"), LogLevel())
	if service != "" {
		logger = logger.With("service", service)
	}
	slog.SetDefault(logger)
	return logger
}

// NewLogger создаёт логгер, пишущий в w. На уровне DEBUG добавляется source.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var h slog.Handler
	switch format {
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

type loggerKey struct{}

// WithLogger кладёт логгер в ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext достаёт логгер из ctx, без него — slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithQueue добавляет поле queue.
func WithQueue(logger *slog.Logger, queue string) *slog.Logger {
	return logger.With("queue", queue)
}

// WithMessageID добавляет поле message_id, если оно известно.
func WithMessageID(logger *slog.Logger, messageID string) *slog.Logger {
	if messageID == "" {
		return logger
	}
	return logger.With("message_id", messageID)
}
