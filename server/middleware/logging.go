package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/logger"
)

// RequestLogger returns a Gin middleware that logs every request with
// method, path, status code, and latency. The log level follows the status:
// 5xx at error, 4xx at warn, everything else at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":             c.Request.Method,
			logger.FieldEndpoint: path,
			"status":             status,
			"latency_ms":         latency.Milliseconds(),
			logger.FieldClientIP: c.ClientIP(),
		}
		if id := c.GetString("request_id"); id != "" {
			fields[logger.FieldRequestID] = id
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}
