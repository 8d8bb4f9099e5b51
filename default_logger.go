package queueadmin

import (
	"fmt"
	"log/slog"
)

// DefaultLogger forwards handler diagnostics to the process-wide slog logger.
// It is what every handler logs to unless WithLogger supplies another Logger,
// such as a zap SugaredLogger.
type DefaultLogger struct{}

// NewDefaultLogger creates a new DefaultLogger.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

func (l *DefaultLogger) Debug(args ...any) { slog.Debug(fmt.Sprint(args...)) }
func (l *DefaultLogger) Info(args ...any)  { slog.Info(fmt.Sprint(args...)) }
func (l *DefaultLogger) Warn(args ...any)  { slog.Warn(fmt.Sprint(args...)) }
func (l *DefaultLogger) Error(args ...any) { slog.Error(fmt.Sprint(args...)) }

// Fatal logs at error level and panics, leaving process exit to the host.
func (l *DefaultLogger) Fatal(args ...any) {
	msg := fmt.Sprint(args...)
	slog.Error(msg)
	panic(msg)
}
