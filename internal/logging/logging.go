// Package logging builds the JSON loggers each component writes through.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"genealogy/internal/auth"
)

// Logger is a component logger with leveled helpers
type Logger struct {
	log.Logger
}

// New returns a JSON logger on stderr tagged with component, dropping
// entries below minLevel (debug, info, warn, error; unknown means info)
func New(component, minLevel string) *Logger {
	return NewWithWriter(os.Stderr, component, minLevel)
}

// NewWithWriter is New writing to w
func NewWithWriter(w io.Writer, component, minLevel string) *Logger {
	var kitlogger log.Logger
	kitlogger = log.NewJSONLogger(log.NewSyncWriter(w))
	kitlogger = level.NewFilter(kitlogger, level.Allow(level.ParseDefault(minLevel, level.InfoValue())))
	kitlogger = log.With(kitlogger, "ts", log.DefaultTimestampUTC)
	kitlogger = log.With(kitlogger, "component", component)
	return &Logger{kitlogger}
}

// Nop discards everything
func Nop() *Logger {
	return &Logger{log.NewNopLogger()}
}

// With returns a logger carrying extra key/value pairs
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{log.With(l.Logger, keyvals...)}
}

func (l *Logger) Debug(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWith(ctx, level.Debug(l.Logger), message, keyvals)
}

func (l *Logger) Info(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWith(ctx, level.Info(l.Logger), message, keyvals)
}

func (l *Logger) Warn(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWith(ctx, level.Warn(l.Logger), message, keyvals)
}

func (l *Logger) Err(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWith(ctx, level.Error(l.Logger), message, keyvals)
}

type requestIDKey struct{}

// WithRequestID attaches a request id that every log line made with ctx carries
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id attached to ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) logWith(ctx context.Context, logger log.Logger, message string, keyvals []interface{}) {
	if ctx != nil {
		if id := RequestID(ctx); id != "" {
			keyvals = append(keyvals, "request_id", id)
		}
		if a, ok := auth.FromContext(ctx); ok {
			keyvals = append(keyvals, "actor", a.ID, "role", string(a.Role))
		}
	}
	keyvals = append(keyvals, "msg", message)
	_ = logger.Log(keyvals...)
}
