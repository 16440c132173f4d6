package server

import (
	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/ratelimit"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/server/middleware"
	"github.com/cinematch/authkit/token"
)

// Routes wires the auth endpoints onto a Gin engine.
type Routes struct {
	Handlers *Handlers
	Codec    *token.Codec
	Revoked  *revocation.Registry
	Limiter  *ratelimit.Limiter
	Logger   *logger.Logger
}

// Mount registers the /auth routes. The register, login, and reset-password
// endpoints sit behind per-IP rate limits; logout, session, and update sit
// behind the access-token guard.
func (r Routes) Mount(engine *gin.Engine) {
	guard := middleware.Auth(middleware.AuthConfig{
		Codec:   r.Codec,
		Revoked: r.Revoked,
		Logger:  r.Logger,
	})

	auth := engine.Group("/auth")
	auth.POST("/register", middleware.RateLimit(r.Limiter, ratelimit.EndpointRegister), r.Handlers.Register)
	auth.POST("/login", middleware.RateLimit(r.Limiter, ratelimit.EndpointLogin), r.Handlers.Login)
	auth.POST("/refresh", r.Handlers.Refresh)
	auth.POST("/reset-password", middleware.RateLimit(r.Limiter, ratelimit.EndpointResetPassword), r.Handlers.ResetPassword)

	auth.POST("/logout", guard, r.Handlers.Logout)
	auth.GET("/session", guard, r.Handlers.Session)
	auth.PUT("/update", guard, r.Handlers.Update)
}
