// Package logger wraps zap behind a small key/value interface.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Interface is the logging surface used across the spider.
type Interface interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Interface
	Sync() error
}

type Config struct {
	Level    string
	Encoding string
}

type Logger struct {
	zapLogger *zap.Logger
}

var logLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

func New(cfg Config) Interface {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	level, ok := logLevels[strings.ToLower(cfg.Level)]
	if !ok {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return &Logger{zapLogger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewFromZap adapts an existing zap logger, e.g. zaptest or zap.NewNop.
func NewFromZap(z *zap.Logger) Interface {
	return &Logger{zapLogger: z}
}

func (l *Logger) Debug(msg string, fields ...any) {
	l.zapLogger.Debug(msg, toZapFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...any) {
	l.zapLogger.Info(msg, toZapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...any) {
	l.zapLogger.Warn(msg, toZapFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...any) {
	l.zapLogger.Error(msg, toZapFields(fields)...)
}

func (l *Logger) With(fields ...any) Interface {
	return &Logger{zapLogger: l.zapLogger.With(toZapFields(fields)...)}
}

func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// toZapFields turns alternating key/value pairs into zap fields.
// zap.Field values are passed through; a dangling key is logged with a nil value.
func toZapFields(fields []any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields)/2+1)
	for i := 0; i < len(fields); i++ {
		switch f := fields[i].(type) {
		case zap.Field:
			out = append(out, f)
		case string:
			if i+1 >= len(fields) {
				out = append(out, zap.Any(f, nil))
				continue
			}
			out = append(out, zap.Any(f, fields[i+1]))
			i++
		default:
			out = append(out, zap.Any("field", f))
		}
	}
	return out
}
