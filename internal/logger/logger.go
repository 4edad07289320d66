package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type AppLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type appLogger struct {
	logger *slog.Logger
}

func NewAppLogger(logger *slog.Logger) AppLogger {
	return &appLogger{
		logger: logger,
	}
}

// Newは標準出力へテキスト形式で出力するAppLoggerを生成します。
func New(level string) AppLogger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriterは出力先を指定してAppLoggerを生成します。
func NewWithWriter(w io.Writer, level string) AppLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return NewAppLogger(slog.New(handler))
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *appLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *appLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *appLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *appLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Nopは何も出力しないAppLoggerです。
func Nop() AppLogger {
	return NewWithWriter(io.Discard, "error")
}
