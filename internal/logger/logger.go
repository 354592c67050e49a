// Package logger wraps zap behind a small interface so the rest of the
// codebase never imports zap directly.
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
	Fatalf(template string, args ...any)

	Sync() error
}

type zapLogger struct {
	z *zap.Logger
}

// New builds the process logger. pretty selects zap's colored console
// encoder for terminals; otherwise output is production JSON. Unknown
// level strings fall back to info.
func New(level string, pretty bool) Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	z, err := cfg.Build(zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		panic(err)
	}
	return &zapLogger{z: z}
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func parseLevel(lvl string) zapcore.Level {
	switch lvl {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) { l.z.Fatal(msg, fields...) }

// The printf variants format eagerly only when the level is enabled, so
// a disabled Debugf costs one level check.
func (l *zapLogger) logf(lvl zapcore.Level, template string, args []any) {
	if !l.z.Core().Enabled(lvl) && lvl != zapcore.FatalLevel {
		return
	}
	msg := template
	if len(args) > 0 {
		msg = fmt.Sprintf(template, args...)
	}
	switch lvl {
	case zapcore.DebugLevel:
		l.z.Debug(msg)
	case zapcore.InfoLevel:
		l.z.Info(msg)
	case zapcore.WarnLevel:
		l.z.Warn(msg)
	case zapcore.ErrorLevel:
		l.z.Error(msg)
	case zapcore.FatalLevel:
		l.z.Fatal(msg)
	}
}

func (l *zapLogger) Debugf(t string, args ...any) { l.logf(zapcore.DebugLevel, t, args) }
func (l *zapLogger) Infof(t string, args ...any)  { l.logf(zapcore.InfoLevel, t, args) }
func (l *zapLogger) Warnf(t string, args ...any)  { l.logf(zapcore.WarnLevel, t, args) }
func (l *zapLogger) Errorf(t string, args ...any) { l.logf(zapcore.ErrorLevel, t, args) }
func (l *zapLogger) Fatalf(t string, args ...any) { l.logf(zapcore.FatalLevel, t, args) }

func (l *zapLogger) Sync() error { return l.z.Sync() }

// Field constructors re-exported from zap so call sites stay decoupled
// from the backing library.
func String(key, val string) zap.Field                 { return zap.String(key, val) }
func Int(key string, val int) zap.Field                { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) zap.Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func Time(key string, val time.Time) zap.Field         { return zap.Time(key, val) }
func Error(err error) zap.Field                        { return zap.Error(err) }
