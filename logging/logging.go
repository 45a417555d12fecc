package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linear-board-sync/models"
)

// NewLogger builds a logger writing to stdout with the configured level and format
func NewLogger(config *models.Config) *zap.Logger {
	return newLogger(config, os.Stdout)
}

func newLogger(config *models.Config, out io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if config.Logging.Format != models.LogFormatJSON {
		// Console output for terminals, coloured levels
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), zapLevel(config.Logging.Level))
	return zap.New(core)
}

// zapLevel maps a configured level onto zap's, falling back to info
func zapLevel(level models.LogLevel) zapcore.Level {
	parsed, err := zapcore.ParseLevel(level.String())
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}
