// Package session orchestrates credential hashing, token minting, and
// revocation into the register / login / refresh / logout / session /
// change-credentials operations. Side effects are confined to UserStore
// mutations and revocation inserts; no token ever silently extends its life.
package session

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/password"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/token"
)

// emailPattern is deliberately loose: one @, no whitespace, a dot in the
// domain. Deliverability is the mail system's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// resetTokenBytes is the entropy of a password-reset token.
const resetTokenBytes = 32

// Credentials is the result of a successful register or login: the account
// plus a fresh token pair.
type Credentials struct {
	Account      *Account `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// Service implements the session operations.
type Service struct {
	store   UserStore
	codec   *token.Codec
	hasher  password.Hasher
	revoked *revocation.Registry
	log     *logger.Logger
}

// NewService wires the session service. All collaborators are required.
func NewService(store UserStore, codec *token.Codec, hasher password.Hasher, revoked *revocation.Registry, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:   store,
		codec:   codec,
		hasher:  hasher,
		revoked: revoked,
		log:     log.WithComponent("session"),
	}
}

// Register creates an account and mints its first token pair.
// Email is normalized (trim + lowercase) and validated; the password must
// pass the strength policy. A taken email fails with a conflict.
func (s *Service) Register(ctx context.Context, email, plaintext, displayName string) (*Credentials, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.MissingField("email")
	}
	if plaintext == "" {
		return nil, errors.MissingField("password")
	}
	if !emailPattern.MatchString(email) {
		return nil, errors.InvalidEmail()
	}
	if failures := password.CheckStrength(plaintext); len(failures) > 0 {
		return nil, errors.WeakPassword(failures)
	}
	if displayName == "" {
		// Same default the signup form applies: local part of the email.
		displayName = email[:strings.IndexByte(email, '@')]
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	acct, err := s.store.Create(ctx, email, hash, displayName)
	if err != nil {
		if stderrors.Is(err, ErrDuplicateEmail) {
			return nil, errors.EmailTaken()
		}
		return nil, s.storageFailure("register", err)
	}

	creds, err := s.mintPair(acct)
	if err != nil {
		return nil, err
	}
	s.log.Info("account registered", map[string]interface{}{logger.FieldSubjectID: acct.ID})
	return creds, nil
}

// Login verifies the password and mints a fresh token pair. An unknown email
// and a wrong password return the identical generic error.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*Credentials, error) {
	email = NormalizeEmail(email)
	if email == "" || plaintext == "" {
		return nil, errors.MissingField("email and password")
	}

	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, s.storageFailure("login", err)
	}

	if !s.hasher.Verify(plaintext, acct.PasswordHash) {
		return nil, errors.InvalidCredentials()
	}

	creds, err := s.mintPair(acct)
	if err != nil {
		return nil, err
	}
	s.log.Info("login", map[string]interface{}{logger.FieldSubjectID: acct.ID})
	return creds, nil
}

// Refresh verifies a refresh token (class, expiry, revocation) and mints a
// new access token for the same subject. The refresh token itself is not
// rotated: it stays valid until its own expiry.
func (s *Service) Refresh(_ context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.Unauthenticated()
	}
	if s.revoked.IsRevoked(refreshToken) {
		return "", errors.TokenRevoked()
	}

	subjectID, err := s.codec.Verify(refreshToken, token.ClassRefresh)
	if err != nil {
		s.log.Warn("refresh rejected", map[string]interface{}{logger.FieldReason: err.Error()})
		return "", errors.InvalidToken()
	}

	access, err := s.codec.MintAccess(subjectID)
	if err != nil {
		return "", errors.Internal(err)
	}
	return access, nil
}

// Logout revokes the access token. Idempotent: an expired or already-revoked
// token is not an error.
func (s *Service) Logout(_ context.Context, accessToken string) {
	s.revoked.Revoke(accessToken)
}

// CurrentSession resolves the subject id to its account. Fails with a
// not-found error when the account vanished between token issuance and use.
func (s *Service) CurrentSession(ctx context.Context, subjectID string) (*Account, error) {
	acct, err := s.store.FindByID(ctx, subjectID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NotFound("account")
		}
		return nil, s.storageFailure("current session", err)
	}
	return acct, nil
}

// ChangeCredentials applies a partial update: only provided (non-empty)
// fields change. A new email is re-validated for format and uniqueness
// excluding the subject itself; a new password is re-validated for strength
// and re-hashed.
func (s *Service) ChangeCredentials(ctx context.Context, subjectID, newEmail, newPassword string) (*Account, error) {
	if newEmail != "" {
		email := NormalizeEmail(newEmail)
		if !emailPattern.MatchString(email) {
			return nil, errors.InvalidEmail()
		}
		if err := s.store.UpdateEmail(ctx, subjectID, email); err != nil {
			switch {
			case stderrors.Is(err, ErrDuplicateEmail):
				return nil, errors.EmailTaken()
			case stderrors.Is(err, ErrNotFound):
				return nil, errors.NotFound("account")
			default:
				return nil, s.storageFailure("change email", err)
			}
		}
	}

	if newPassword != "" {
		if failures := password.CheckStrength(newPassword); len(failures) > 0 {
			return nil, errors.WeakPassword(failures)
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return nil, errors.Validation(err.Error())
		}
		if err := s.store.UpdatePasswordHash(ctx, subjectID, hash); err != nil {
			if stderrors.Is(err, ErrNotFound) {
				return nil, errors.NotFound("account")
			}
			return nil, s.storageFailure("change password", err)
		}
	}

	acct, err := s.store.FindByID(ctx, subjectID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NotFound("account")
		}
		return nil, s.storageFailure("change credentials", err)
	}
	return acct, nil
}

// RequestPasswordReset acknowledges a reset request without revealing
// whether the account exists. When it does, a single-use token is generated
// and handed to the delivery layer; only its digest is ever logged.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return errors.MissingField("email")
	}
	if !emailPattern.MatchString(email) {
		return errors.InvalidEmail()
	}

	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			// Same acknowledgement as the success path.
			return nil
		}
		return s.storageFailure("password reset", err)
	}

	resetToken, err := password.GenerateToken(resetTokenBytes)
	if err != nil {
		return errors.Internal(err)
	}
	s.log.Info("password reset requested", map[string]interface{}{
		logger.FieldSubjectID: acct.ID,
		"token_digest":        password.HashSHA256(resetToken),
	})
	return nil
}

// NormalizeEmail trims surrounding whitespace and lowercases.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mintPair mints an access and a refresh token for the account. Minting is
// independent of storage and side-effect free, so a caller that lost the
// response can simply retry.
func (s *Service) mintPair(acct *Account) (*Credentials, error) {
	access, err := s.codec.MintAccess(acct.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, err := s.codec.MintRefresh(acct.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &Credentials{Account: acct, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) storageFailure(op string, err error) error {
	s.log.WithError(err).Error("storage failure", map[string]interface{}{"op": op})
	return errors.Storage(err)
}
