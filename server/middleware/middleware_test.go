package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/authctx"
	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/ratelimit"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/server/middleware"
	"github.com/cinematch/authkit/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func newGuardEngine(t *testing.T, codec *token.Codec, registry *revocation.Registry) *gin.Engine {
	t.Helper()
	engine := gin.New()
	engine.GET("/protected", middleware.Auth(middleware.AuthConfig{
		Codec:   codec,
		Revoked: registry,
		Logger:  logger.Nop(),
	}), func(c *gin.Context) {
		sess := authctx.MustGet(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"subject": sess.SubjectID})
	})
	return engine
}

func errorCode(t *testing.T, body []byte) errors.ErrorCode {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("response is not an error envelope: %v (%s)", err, body)
	}
	return resp.Error.Code
}

// ---------------------------------------------------------------------------
// Auth guard
// ---------------------------------------------------------------------------

func TestAuth_NoToken(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/protected", http.NoBody))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if code := errorCode(t, rr.Body.Bytes()); code != errors.ErrCodeUnauthenticated {
		t.Errorf("expected UNAUTHENTICATED, got %s", code)
	}
}

func TestAuth_BearerToken(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	access, _ := codec.MintAccess("subject-1")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+access)
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["subject"] != "subject-1" {
		t.Errorf("expected subject-1, got %q", body["subject"])
	}
}

func TestAuth_CookieFallback(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	access, _ := codec.MintAccess("subject-2")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: access})
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAuth_HeaderWinsOverCookie(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	headerToken, _ := codec.MintAccess("header-subject")
	cookieToken, _ := codec.MintAccess("cookie-subject")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+headerToken)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: cookieToken})
	engine.ServeHTTP(rr, req)

	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["subject"] != "header-subject" {
		t.Errorf("bearer header must take precedence, got %q", body["subject"])
	}
}

func TestAuth_RevokedToken(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	access, _ := codec.MintAccess("subject-3")
	registry.Revoke(access)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+access)
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if code := errorCode(t, rr.Body.Bytes()); code != errors.ErrCodeTokenRevoked {
		t.Errorf("expected TOKEN_REVOKED, got %s", code)
	}
}

func TestAuth_InvalidToken_Table(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	refresh, _ := codec.MintRefresh("subject-4")
	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"wrong class", refresh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/protected", http.NoBody)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			engine.ServeHTTP(rr, req)

			if rr.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", rr.Code)
			}
			if code := errorCode(t, rr.Body.Bytes()); code != errors.ErrCodeInvalidToken {
				t.Errorf("expected INVALID_TOKEN, got %s", code)
			}
		})
	}
}

func TestAuth_MalformedHeaderFallsBackToCookie(t *testing.T) {
	codec := newCodec(t)
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	engine := newGuardEngine(t, codec, registry)

	access, _ := codec.MintAccess("subject-5")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", http.NoBody)
	req.Header.Set("Authorization", "Token abc")
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: access})
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie fallback, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Rate limit
// ---------------------------------------------------------------------------

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Endpoints: map[string]ratelimit.EndpointLimit{
			"login": {MaxAttempts: 2, Window: time.Minute},
		},
	})

	engine := gin.New()
	engine.POST("/login", middleware.RateLimit(limiter, "login"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		engine.ServeHTTP(rr, httptest.NewRequest("POST", "/login", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("POST", "/login", http.NoBody))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if code := errorCode(t, rr.Body.Bytes()); code != errors.ErrCodeRateLimited {
		t.Errorf("expected RATE_LIMITED, got %s", code)
	}
}

func TestRateLimit_UnmeteredEndpointPasses(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{})

	engine := gin.New()
	engine.POST("/refresh", middleware.RateLimit(limiter, "refresh"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		engine.ServeHTTP(rr, httptest.NewRequest("POST", "/refresh", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rr.Code)
		}
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesID(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id in response headers")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("X-Request-Id", "custom-id-123")
	engine.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "custom-id-123" {
		t.Fatalf("expected custom-id-123, got %s", got)
	}
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_Panic(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.Recovery(logger.Nop()))
	engine.GET("/boom", func(*gin.Context) { panic("test panic") })

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if code := errorCode(t, rr.Body.Bytes()); code != errors.ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
}
