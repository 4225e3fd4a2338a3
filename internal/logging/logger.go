package logging

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with key/value convenience methods:
//
//	logger.Info("Snapshot applied", "topic", topic, "records", n)
type Logger struct {
	zl zerolog.Logger
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(NewDevelopment())
}

// NewProduction creates a production logger with JSON output
func NewProduction() *Logger {
	return NewWithWriter(os.Stdout, zerolog.InfoLevel)
}

// NewDevelopment creates a development logger with pretty console output
func NewDevelopment() *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return NewWithWriter(output, zerolog.DebugLevel)
}

// NewWithWriter creates a logger with custom writer
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewNop creates a logger that discards everything, for tests
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetGlobal replaces the logger returned by Global and used as the context fallback
func SetGlobal(logger *Logger) {
	if logger != nil {
		global.Store(logger)
	}
}

// Global returns the global logger instance
func Global() *Logger {
	return global.Load()
}

// Component returns a child of the global logger tagged with a component name
func Component(name string) *Logger {
	return Global().With("component", name)
}

// eachPair calls fn for every key/value pair whose key is a string.
// A trailing key without value is dropped.
func eachPair(fields []interface{}, fn func(key string, value interface{})) {
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			fn(key, fields[i+1])
		}
	}
}

func (l *Logger) write(e *zerolog.Event, msg string, fields []interface{}) {
	if e == nil {
		return
	}
	eachPair(fields, func(key string, value interface{}) {
		if err, ok := value.(error); ok {
			e.AnErr(key, err)
			return
		}
		e.Interface(key, value)
	})
	e.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.write(l.zl.Debug(), msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.write(l.zl.Info(), msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.write(l.zl.Warn(), msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.write(l.zl.Error(), msg, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...interface{}) {
	l.write(l.zl.Fatal(), msg, fields)
}

// With creates a child logger that adds fields to every entry
func (l *Logger) With(fields ...interface{}) *Logger {
	zc := l.zl.With()
	eachPair(fields, func(key string, value interface{}) {
		if err, ok := value.(error); ok {
			zc = zc.AnErr(key, err)
			return
		}
		zc = zc.Interface(key, value)
	})
	return &Logger{zl: zc.Logger()}
}

// WithContext returns a child logger carrying the request id and topic of ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
