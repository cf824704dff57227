// Package logging defines the minimal structured logger used throughout
// go-binsvc.
//
// The library never constructs its own logger: every component takes a Logger
// and defaults to Nop() when none is provided. Binaries are expected to wrap
// whatever they already use; NewZap adapts a *zap.Logger, which is what the
// bundled commands do.
//
// Arguments after the message are alternating key/value pairs, matching the
// zap sugared (and slog) convention:
//
//	log.Warn("dropping malformed line", "service", name, "err", err)
package logging

import (
	"go.uber.org/zap"
)

// Logger is the structured logging interface consumed by go-binsvc.
// Args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ZapLogger adapts a *zap.Logger to the Logger interface.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZap wraps a zap logger. A nil logger yields a no-op ZapLogger.
func NewZap(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{s: l.Sugar()}
}

// Debug logs at debug level.
func (z *ZapLogger) Debug(msg string, args ...any) { z.s.Debugw(msg, args...) }

// Info logs at info level.
func (z *ZapLogger) Info(msg string, args ...any) { z.s.Infow(msg, args...) }

// Warn logs at warn level.
func (z *ZapLogger) Warn(msg string, args ...any) { z.s.Warnw(msg, args...) }

// Error logs at error level.
func (z *ZapLogger) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }

// Named returns a child logger with the given name segment appended,
// following zap's dot-separated naming.
func (z *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{s: z.s.Named(name)}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }
