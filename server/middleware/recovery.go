package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/logger"
)

// Recovery returns a Gin middleware that recovers from panics, logs the
// stack, and responds with a generic 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", map[string]interface{}{
					"error":              fmt.Sprintf("%v", r),
					"stack":              string(debug.Stack()),
					logger.FieldEndpoint: c.Request.URL.Path,
					"method":             c.Request.Method,
					logger.FieldClientIP: c.ClientIP(),
				})
				appErr := errors.Internal(fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToResponse())
			}
		}()
		c.Next()
	}
}
