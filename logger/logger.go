package logger

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// New builds the process logger. Production gets JSON with ISO8601
// timestamps, everything else a coloured console logger. When shipper is not
// nil the core is tee'd to a JSON core writing to it.
func New(env string, shipper io.Writer) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if shipper == nil {
		return cfg.Build()
	}

	level := zap.NewAtomicLevelAt(cfg.Level.Level())

	var consoleEncoder zapcore.Encoder
	if env == "production" {
		consoleEncoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level)

	// CloudWatch always receives JSON without colour codes.
	shipperCfg := cfg.EncoderConfig
	shipperCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	shipperCore := zapcore.NewCore(zapcore.NewJSONEncoder(shipperCfg), zapcore.AddSync(shipper), level)

	return zap.New(
		zapcore.NewTee(consoleCore, shipperCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// ForRequest scopes base to the current request ID, if one was assigned.
func ForRequest(base *zap.Logger, c *gin.Context) *zap.Logger {
	if rid := c.GetString(RequestIDKey); rid != "" {
		return base.With(zap.String(RequestIDKey, rid))
	}
	return base
}
