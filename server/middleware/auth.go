// Package middleware provides the Gin middleware for the auth service:
// the access-token guard, per-endpoint rate limiting, request ids,
// panic recovery, and request logging.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/authctx"
	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/token"
)

// AccessTokenCookie is the cookie the guard falls back to when no
// Authorization header is present.
const AccessTokenCookie = "accessToken"

// AuthConfig configures the access-token guard.
type AuthConfig struct {
	// Codec verifies access tokens.
	Codec *token.Codec

	// Revoked is consulted before the token is verified. A revoked token is
	// rejected even when it would otherwise still be valid.
	Revoked *revocation.Registry

	// Logger receives the rejection reasons that the response body hides.
	Logger *logger.Logger
}

// Auth returns the guard middleware. It extracts the access token from the
// Authorization bearer header, falling back to the accessToken cookie, and
// rejects the request when the token is absent (401), revoked (403), or fails
// verification (403). On success the session is stored in the request context
// for handlers to read via authctx.
//
// The 403 body is the same for a revoked, expired, tampered, or wrong-class
// token; the distinction exists only in the logs.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("auth_guard")

	return func(c *gin.Context) {
		raw := ExtractToken(c)
		if raw == "" {
			abortWith(c, errors.Unauthenticated())
			return
		}

		if cfg.Revoked.IsRevoked(raw) {
			log.Warn("rejected revoked token", map[string]interface{}{
				logger.FieldEndpoint: c.Request.URL.Path,
				logger.FieldClientIP: c.ClientIP(),
			})
			abortWith(c, errors.TokenRevoked())
			return
		}

		subjectID, err := cfg.Codec.Verify(raw, token.ClassAccess)
		if err != nil {
			log.Warn("rejected invalid token", map[string]interface{}{
				logger.FieldEndpoint: c.Request.URL.Path,
				logger.FieldClientIP: c.ClientIP(),
				logger.FieldReason:   err.Error(),
			})
			abortWith(c, errors.InvalidToken())
			return
		}

		ctx := authctx.Set(c.Request.Context(), authctx.Session{
			SubjectID: subjectID,
			Token:     raw,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ExtractToken pulls the access token out of the request: the Authorization
// bearer header wins, the accessToken cookie is the fallback. Returns "" when
// neither is present.
func ExtractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1]
		}
		// A malformed header does not shadow the cookie.
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return ""
}

func abortWith(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
