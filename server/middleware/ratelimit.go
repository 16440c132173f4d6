package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/ratelimit"
)

// RateLimit returns a Gin middleware that enforces the limiter's policy for
// the given endpoint, keyed on client IP. A blocked request gets a 429 with a
// Retry-After header and the same retry hint in the body.
//
// The attempt is recorded before the handler runs, so failed and successful
// requests count alike.
func RateLimit(limiter *ratelimit.Limiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := limiter.Check(endpoint, c.ClientIP())
		if !result.Allowed {
			appErr := errors.RateLimited(result.RetryAfter)
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(appErr)))
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(appErr *errors.AppError) int {
	if v, ok := appErr.Details["retry_after"].(int); ok {
		return v
	}
	return 1
}
