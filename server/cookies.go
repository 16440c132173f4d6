package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names mirror the JSON field names of the login response so browser
// and non-browser clients see the same vocabulary.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookieWriter issues and clears the token cookies. Tokens are delivered both
// in the response body (for API clients) and as HttpOnly SameSite=Strict
// cookies (for browsers); the cookies are never readable from script.
type CookieWriter struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieWriter creates a CookieWriter. secure should be true whenever the
// service is reached over HTTPS (i.e. anything but local development).
func NewCookieWriter(secure bool, accessTTL, refreshTTL time.Duration) *CookieWriter {
	return &CookieWriter{secure: secure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// SetPair writes both token cookies, each expiring with its token.
func (w *CookieWriter) SetPair(c *gin.Context, accessToken, refreshToken string) {
	w.set(c, AccessCookie, accessToken, w.accessTTL)
	w.set(c, RefreshCookie, refreshToken, w.refreshTTL)
}

// SetAccess rewrites only the access cookie, after a refresh.
func (w *CookieWriter) SetAccess(c *gin.Context, accessToken string) {
	w.set(c, AccessCookie, accessToken, w.accessTTL)
}

// Clear expires both token cookies.
func (w *CookieWriter) Clear(c *gin.Context) {
	w.set(c, AccessCookie, "", -time.Second)
	w.set(c, RefreshCookie, "", -time.Second)
}

func (w *CookieWriter) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetCookie(name, value, maxAge, "/", "", w.secure, true)
}
