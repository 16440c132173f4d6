// Command authd runs the authentication service: account registration and
// login, JWT issuance and refresh, logout with revocation, and per-endpoint
// rate limiting, all exposed under /auth.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinematch/authkit/config"
	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/password"
	"github.com/cinematch/authkit/ratelimit"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/server"
	"github.com/cinematch/authkit/session"
	"github.com/cinematch/authkit/token"
)

func main() {
	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		logger.NewDefault("authd").Fatal("failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cfg.ApplyDefaults()

	log := logger.New(&cfg.Logging, cfg.Name)

	// A missing signing secret must stop the process before it can serve a
	// single request.
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		log.Fatal("failed to construct token codec", map[string]interface{}{"error": err.Error()})
	}

	registry := revocation.NewRegistry(cfg.Revocation, log)
	limiter := ratelimit.NewLimiter(cfg.RateLimit)
	hasher := password.NewHasher(cfg.Password)
	store := session.NewMemoryStore()
	svc := session.NewService(store, codec, hasher, registry, log)
	cookies := server.NewCookieWriter(cfg.Server.SecureCookies, codec.AccessTTL(), codec.RefreshTTL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background janitors: the registry sweeps expired revocations, the
	// limiter drops windows nobody touches anymore.
	go registry.Run(ctx)
	go limiter.Run(ctx)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	server.Routes{
		Handlers: server.NewHandlers(svc, cookies, log),
		Codec:    codec,
		Revoked:  registry,
		Limiter:  limiter,
		Logger:   log,
	}.Mount(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("failed to start server", map[string]interface{}{"error": err.Error()})
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := srv.Stop(context.Background()); err != nil {
		log.Error("shutdown error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
