package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Глобальный экземпляр логгера
var (
	globalLogger *zap.Logger
	once         sync.Once
)

// Init инициализирует глобальный логгер.
//
// level: debug, info, warn, error (по умолчанию info)
// format: json или console (по умолчанию json)
//
// Повторные вызовы игнорируются.
func Init(level, format string) {
	once.Do(func() {
		globalLogger = newLogger(level, format)
	})
}

// Get возвращает глобальный экземпляр логгера
func Get() *zap.Logger {
	if globalLogger == nil {
		Init("info", "json")
	}
	return globalLogger
}

// Sync сбрасывает буферизованные записи (вызывать при завершении)
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// Вспомогательные функции для удобства использования

func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}

// newLogger создаёт новый экземпляр логгера
func newLogger(level, format string) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	if format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	zapLevel := zapcore.InfoLevel
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapLevel)
	return zap.New(core, zap.AddCaller())
}
