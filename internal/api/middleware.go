package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ken/internmatch/internal/logger"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	loggerKey    = "logger"
)

// RequestID assigns each request an ID, reusing a valid incoming one, and
// echoes it in the response
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Set(loggerKey, logger.With(requestIDKey, id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog logs one line per request once it has been handled
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestLogger(c).Infow("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func requestLogger(c *gin.Context) *zap.SugaredLogger {
	if l, ok := c.Get(loggerKey); ok {
		if sl, ok := l.(*zap.SugaredLogger); ok {
			return sl
		}
	}
	return logger.With()
}

// RequestIDFrom returns the ID assigned to the request
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
