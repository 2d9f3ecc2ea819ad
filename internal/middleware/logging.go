package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// quietPaths are polled by probes and logged at debug level when they succeed
var quietPaths = map[string]bool{
	"/api/v1/health": true,
}

// requestFields identifies the request in every log entry
func requestFields(c *gin.Context) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", c.FullPath()),
		zap.String(requestIDKey, c.GetString(requestIDKey)),
		zap.String("ip", c.ClientIP()),
	}
}

// RequestLoggingMiddleware logs every request with status, duration and response size
func RequestLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := append(requestFields(c),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("response_bytes", c.Writer.Size()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Time("timestamp", startTime),
		)

		level := zapcore.InfoLevel
		message := "Request completed"
		switch {
		case status >= 500:
			level, message = zapcore.ErrorLevel, "Request completed with server error"
		case status >= 400:
			level, message = zapcore.WarnLevel, "Request completed with client error"
		case quietPaths[c.Request.URL.Path]:
			level = zapcore.DebugLevel
		}

		if ce := logger.Check(level, message); ce != nil {
			ce.Write(fields...)
		}
	}
}

// ErrorLoggingMiddleware logs errors handlers attached to the context
func ErrorLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			fields := append(requestFields(c),
				zap.Error(err.Err),
				zap.Uint64("error_type", uint64(err.Type)),
				zap.Stack("stack_trace"),
			)
			if err.Meta != nil {
				fields = append(fields, zap.Any("meta", err.Meta))
			}
			logger.Error("Request error occurred", fields...)
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 with the standard error body
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered", append(requestFields(c),
					zap.Any("error", err),
					zap.Stack("stack_trace"),
				)...)

				body := gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Internal server error",
				}
				if id := c.GetString(requestIDKey); id != "" {
					body["details"] = gin.H{requestIDKey: id}
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()

		c.Next()
	}
}

// RequestIDMiddleware keeps the caller's X-Request-ID or assigns a uuid
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
