package log

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type zapLogger struct {
	z *zap.Logger
}

// NewZapLogger builds the service logger. Every entry carries the service
// name, version and environment.
func NewZapLogger(cfg Config) (Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %q: %w", cfg.OutputPath, err)
	}

	core := zapcore.NewCore(newEncoder(cfg), sink, level)

	options := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", cfg.ServiceName),
			zap.String("version", cfg.Version),
			zap.String("env", cfg.Environment),
		),
	}
	if !cfg.DisableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return &zapLogger{z: zap.New(core, options...)}, nil
}

// NewNopLogger discards everything.
func NewNopLogger() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func newEncoder(cfg Config) zapcore.Encoder {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(cfg.Format, "console") {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(enc)
	}
	return zapcore.NewJSONEncoder(enc)
}

func openSink(cfg Config) (zapcore.WriteSyncer, error) {
	switch cfg.OutputPath {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.FileMaxSizeInMB,
		MaxAge:     cfg.FileMaxAgeInDays,
		MaxBackups: cfg.FileMaxBackups,
		Compress:   cfg.CompressRotated,
	}), nil
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }

func (l *zapLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, append(fields, contextFields(ctx)...)...)
}

func (l *zapLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.z.Info(msg, append(fields, contextFields(ctx)...)...)
}

func (l *zapLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, append(fields, contextFields(ctx)...)...)
}

func (l *zapLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.z.Error(msg, append(fields, contextFields(ctx)...)...)
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}
