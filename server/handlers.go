// Package server exposes the session operations over HTTP. Routes, request
// binding, cookies, and the response envelope live here; all business rules
// stay in the session package.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/cinematch/authkit/authctx"
	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/session"
	"github.com/cinematch/authkit/validation"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required,strongpw"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required"`
}

// Handlers binds the HTTP surface to the session service.
type Handlers struct {
	svc     *session.Service
	cookies *CookieWriter
	log     *logger.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(svc *session.Service, cookies *CookieWriter, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{svc: svc, cookies: cookies, log: log.WithComponent("handlers")}
}

// Register handles POST /auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	creds, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	h.cookies.SetPair(c, creds.AccessToken, creds.RefreshToken)
	RespondCreated(c, creds)
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	creds, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	h.cookies.SetPair(c, creds.AccessToken, creds.RefreshToken)
	RespondOK(c, creds)
}

// Refresh handles POST /auth/refresh. The refresh token comes from the
// request body, falling back to the refreshToken cookie.
func (h *Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	// An empty body is fine; the cookie may carry the token.
	_ = c.ShouldBindJSON(&req)
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		refreshToken, _ = c.Cookie(RefreshCookie)
	}

	access, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	h.cookies.SetAccess(c, access)
	RespondOK(c, gin.H{"accessToken": access})
}

// Logout handles POST /auth/logout. Runs behind the guard so the exact
// credential that authenticated the request is the one revoked.
func (h *Handlers) Logout(c *gin.Context) {
	sess := authctx.MustGet(c.Request.Context())
	h.svc.Logout(c.Request.Context(), sess.Token)
	h.cookies.Clear(c)
	RespondOK(c, gin.H{"message": "Logged out"})
}

// Session handles GET /auth/session.
func (h *Handlers) Session(c *gin.Context) {
	sess := authctx.MustGet(c.Request.Context())
	acct, err := h.svc.CurrentSession(c.Request.Context(), sess.SubjectID)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, acct)
}

// Update handles PUT /auth/update. Both fields are optional; empty means
// unchanged.
func (h *Handlers) Update(c *gin.Context) {
	var req updateRequest
	if err := bind(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}
	if req.Email == "" && req.Password == "" {
		RespondWithError(c, errors.Validation("nothing to update"))
		return
	}

	sess := authctx.MustGet(c.Request.Context())
	acct, err := h.svc.ChangeCredentials(c.Request.Context(), sess.SubjectID, req.Email, req.Password)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, acct)
}

// ResetPassword handles POST /auth/reset-password. The response never reveals
// whether the account exists.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := bind(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "If an account exists for that email, a reset link has been sent."})
}

// bind decodes the JSON body into req and runs struct-tag validation.
func bind(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return errors.Validation("invalid request body")
	}
	return validation.Validate(req)
}
