package logger

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger 适配zap到kratos日志接口
type ZapLogger struct {
	zap *zap.Logger
}

var _ log.Logger = (*ZapLogger)(nil)

// NewZapLogger 包装已构建的zap.Logger
func NewZapLogger(zl *zap.Logger) *ZapLogger {
	return &ZapLogger{zap: zl.WithOptions(zap.AddCallerSkip(2))}
}

// Log 实现kratos log.Logger
func (l *ZapLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "")
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.zap.Debug(msg, fields...)
	case log.LevelInfo:
		l.zap.Info(msg, fields...)
	case log.LevelWarn:
		l.zap.Warn(msg, fields...)
	case log.LevelError:
		l.zap.Error(msg, fields...)
	case log.LevelFatal:
		l.zap.Fatal(msg, fields...)
	default:
		l.zap.Info(msg, fields...)
	}
	return nil
}

// Sync 刷新缓冲日志
func (l *ZapLogger) Sync() error {
	return l.zap.Sync()
}

// NewZap 按格式与级别构建zap.Logger
func NewZap(format, level, serviceName string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		parsed = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.Level = parsed

	cfg.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	return cfg.Build()
}
