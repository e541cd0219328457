package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	RequestIDHeader = "X-Request-ID"
	ctxKey          = "logger"
	requestIDKey    = "request_id"
)

// New builds the process logger. Production gets structured JSON,
// everything else a colored console encoder.
func New(level, environment string) (*zap.Logger, error) {
	var logConfig zap.Config
	if environment == "production" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(lvl)

	return logConfig.Build()
}

// Middleware logs one line per request and stores a request-scoped logger on the context.
func Middleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetString(requestIDKey)
		ctxLogger := base.With(zap.String("request_id", requestID))
		c.Set(ctxKey, ctxLogger)

		c.Next()

		fields := []zapcore.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			ctxLogger.Error("HTTP request failed", fields...)
		case status >= 400:
			ctxLogger.Warn("HTTP request rejected", fields...)
		default:
			ctxLogger.Info("HTTP request completed", fields...)
		}
	}
}

// SetRequestID records the id Middleware attaches to every log line.
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

// FromContext returns the request-scoped logger, or fallback when Middleware did not run.
func FromContext(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(ctxKey); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}
	return fallback
}
