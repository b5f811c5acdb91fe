// Package logging is a thin, named-sublogger wrapper around zap, matching
// the shape the rest of the core expects: construct once at the composition
// root, pass down through constructors, derive named children per component.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the logging handle threaded through every component constructor.
type Logger struct {
	name string
	zap  *zap.SugaredLogger
}

// NewLogger builds a production logger writing leveled, structured console
// output, named for the top-level component that owns it.
func NewLogger(name string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		// Fallback should be unreachable with the static config above.
		z = zap.NewNop()
	}
	return &Logger{name: name, zap: z.Named(name).Sugar()}
}

// NewTestLogger builds a logger that writes through the test's t.Log, so
// failures carry timing-relevant log lines without polluting `go test -v`
// output ordering.
func NewTestLogger(t testing.TB) *Logger {
	return &Logger{name: t.Name(), zap: zaptest.NewLogger(t).Named(t.Name()).Sugar()}
}

// Sublogger derives a child logger scoped to a subsystem, e.g.
// logger.Sublogger("scheduler.control").
func (l *Logger) Sublogger(name string) *Logger {
	return &Logger{name: l.name + "." + name, zap: l.zap.Named(name)}
}

func (l *Logger) Debugw(msg string, kv ...interface{}) { l.zap.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...interface{})  { l.zap.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.zap.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.zap.Errorw(msg, kv...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zap.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zap.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zap.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zap.Errorf(format, args...) }

// Sync flushes any buffered log entries; call during graceful shutdown.
func (l *Logger) Sync() error { return l.zap.Sync() }
