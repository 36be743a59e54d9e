package util

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the process logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("console" by default, "json" for log shippers).
func NewZapLogger() *zap.SugaredLogger {
	return newLogger(zapcore.AddSync(os.Stdout), os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func newLogger(out zapcore.WriteSyncer, level, format string) *zap.SugaredLogger {
	lvl, err := zapcore.ParseLevel(level)
	if level == "" || err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "json") {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	return zap.New(zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(lvl))).Sugar()
}
