package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog so callers get structured logging plus Fatal.
type Logger struct {
	*slog.Logger
}

func New(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})),
	}
}

// Fatal is equivalent to Error followed by os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
