package utils

import (
	"log"
	"os"
	"path/filepath"

	"servicehub/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Global logger instance
var Logger *zap.Logger

// InitializeLogger sets up the logging configuration. With LOG_PATH set, every
// entry is also written to a rotating file in that directory.
func InitializeLogger() {
	debug := !config.IsProduction()

	encoderConfig := zap.NewProductionEncoderConfig()
	level := zap.InfoLevel
	if debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level = zap.DebugLevel
	}
	if l, err := zapcore.ParseLevel(config.AppConfig.LogLevel); err == nil && !debug {
		level = l
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if debug {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)}

	if dir := config.AppConfig.LogPath; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(dir, "servicehub.log"),
			MaxSize:    10, // MB
			MaxBackups: 7,
			MaxAge:     28, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(fileEncoder, fileWriter, level))
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}
