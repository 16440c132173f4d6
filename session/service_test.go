package session

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/password"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/token"
)

func newTestService(t *testing.T, store UserStore) (*Service, *token.Codec, *revocation.Registry) {
	t.Helper()
	codec, err := token.NewCodec(token.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	registry := revocation.NewRegistry(revocation.Config{}, logger.Nop())
	hasher := password.NewBcryptHasher(password.WithCost(4))
	return NewService(store, codec, hasher, registry, logger.Nop()), codec, registry
}

func TestService_Register_Success(t *testing.T) {
	svc, codec, _ := newTestService(t, NewMemoryStore())

	creds, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if creds.Account.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", creds.Account.Email)
	}
	if creds.Account.DisplayName != "Alice" {
		t.Errorf("unexpected display name %q", creds.Account.DisplayName)
	}
	if creds.Account.ID == "" {
		t.Error("expected account id")
	}

	subject, err := codec.Verify(creds.AccessToken, token.ClassAccess)
	if err != nil || subject != creds.Account.ID {
		t.Errorf("access token: subject=%q err=%v", subject, err)
	}
	subject, err = codec.Verify(creds.RefreshToken, token.ClassRefresh)
	if err != nil || subject != creds.Account.ID {
		t.Errorf("refresh token: subject=%q err=%v", subject, err)
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())

	if _, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice Again")
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestService_Register_NormalizesEmail(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())

	creds, err := svc.Register(context.Background(), "  Alice@Example.COM ", "Passw0rd!", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if creds.Account.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", creds.Account.Email)
	}

	// The normalized form collides with differently-cased input.
	_, err = svc.Register(context.Background(), "ALICE@example.com", "Passw0rd!", "Mallory")
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT for case-variant email, got %v", err)
	}
}

func TestService_Register_DefaultDisplayName(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())

	creds, err := svc.Register(context.Background(), "bob@example.com", "Passw0rd!", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if creds.Account.DisplayName != "bob" {
		t.Errorf("expected display name from local part, got %q", creds.Account.DisplayName)
	}
}

func TestService_Register_Validation_Table(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())

	tests := []struct {
		name     string
		email    string
		password string
		code     errors.ErrorCode
	}{
		{"missing email", "", "Passw0rd!", errors.ErrCodeMissingField},
		{"missing password", "a@b.com", "", errors.ErrCodeMissingField},
		{"malformed email", "not-an-email", "Passw0rd!", errors.ErrCodeInvalidFormat},
		{"email without dot", "a@b", "Passw0rd!", errors.ErrCodeInvalidFormat},
		{"weak password", "a@b.com", "password", errors.ErrCodeWeakPassword},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.password, "X")
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestService_Register_WeakPassword_EnumeratesRules(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())

	_, err := svc.Register(context.Background(), "a@b.com", "password", "X")
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	reqs, ok := appErr.Details["requirements"].([]string)
	if !ok || len(reqs) == 0 {
		t.Fatalf("expected enumerated requirements, got %v", appErr.Details)
	}
}

func TestService_Login_Success(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	registered, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	creds, err := svc.Login(context.Background(), "alice@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if creds.Account.ID != registered.Account.ID {
		t.Error("expected the same account")
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		t.Error("expected a fresh token pair")
	}
}

func TestService_Login_GenericInvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	_, _ = svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	_, wrongPassword := svc.Login(context.Background(), "alice@example.com", "WrongPass1")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "Passw0rd!")

	wp, ok1 := errors.AsAppError(wrongPassword)
	ue, ok2 := errors.AsAppError(unknownEmail)
	if !ok1 || !ok2 {
		t.Fatalf("expected AppErrors, got %v / %v", wrongPassword, unknownEmail)
	}
	if wp.Code != ue.Code || wp.Message != ue.Message || wp.HTTPStatus != ue.HTTPStatus {
		t.Errorf("wrong-password and unknown-email must be identical: %v vs %v", wp, ue)
	}
	if wp.Code != errors.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", wp.Code)
	}
}

func TestService_Refresh_RoundTrip(t *testing.T) {
	svc, codec, _ := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	access, err := svc.Refresh(context.Background(), creds.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	subject, err := codec.Verify(access, token.ClassAccess)
	if err != nil {
		t.Fatalf("Verify new access token: %v", err)
	}
	if subject != creds.Account.ID {
		t.Errorf("expected subject %q, got %q", creds.Account.ID, subject)
	}
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	_, err := svc.Refresh(context.Background(), creds.AccessToken)
	if !errors.HasCode(err, errors.ErrCodeInvalidToken) {
		t.Errorf("expected INVALID_TOKEN for access token in refresh slot, got %v", err)
	}
}

func TestService_Refresh_RejectsRevoked(t *testing.T) {
	svc, _, registry := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	registry.Revoke(creds.RefreshToken)
	_, err := svc.Refresh(context.Background(), creds.RefreshToken)
	if !errors.HasCode(err, errors.ErrCodeTokenRevoked) {
		t.Errorf("expected TOKEN_REVOKED, got %v", err)
	}
}

func TestService_Refresh_MissingToken(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	_, err := svc.Refresh(context.Background(), "")
	if !errors.HasCode(err, errors.ErrCodeUnauthenticated) {
		t.Errorf("expected UNAUTHENTICATED, got %v", err)
	}
}

func TestService_Refresh_DoesNotRotate(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	// The refresh token stays valid after use; only its own expiry ends it.
	if _, err := svc.Refresh(context.Background(), creds.RefreshToken); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), creds.RefreshToken); err != nil {
		t.Errorf("second Refresh with the same token: %v", err)
	}
}

func TestService_Logout_RevokesAndIsIdempotent(t *testing.T) {
	svc, _, registry := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	svc.Logout(context.Background(), creds.AccessToken)
	if !registry.IsRevoked(creds.AccessToken) {
		t.Error("access token must be revoked after logout")
	}

	// Logging out again, or with an expired token, is harmless.
	svc.Logout(context.Background(), creds.AccessToken)
	svc.Logout(context.Background(), "long-expired-token")
	if !registry.IsRevoked(creds.AccessToken) {
		t.Error("token must stay revoked")
	}
}

func TestService_CurrentSession(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	acct, err := svc.CurrentSession(context.Background(), creds.Account.ID)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if acct.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", acct.Email)
	}

	_, err = svc.CurrentSession(context.Background(), "gone-subject")
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND for vanished account, got %v", err)
	}
}

func TestService_ChangeCredentials_PartialUpdates(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")
	id := creds.Account.ID

	// Email only.
	acct, err := svc.ChangeCredentials(context.Background(), id, "new@example.com", "")
	if err != nil {
		t.Fatalf("ChangeCredentials(email): %v", err)
	}
	if acct.Email != "new@example.com" {
		t.Errorf("expected updated email, got %q", acct.Email)
	}

	// Password only; the old one stops working.
	if _, err := svc.ChangeCredentials(context.Background(), id, "", "NewPassw0rd"); err != nil {
		t.Fatalf("ChangeCredentials(password): %v", err)
	}
	if _, err := svc.Login(context.Background(), "new@example.com", "Passw0rd!"); err == nil {
		t.Error("old password must no longer work")
	}
	if _, err := svc.Login(context.Background(), "new@example.com", "NewPassw0rd"); err != nil {
		t.Errorf("new password must work: %v", err)
	}
}

func TestService_ChangeCredentials_EmailUniqueness(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	alice, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")
	_, _ = svc.Register(context.Background(), "bob@example.com", "Passw0rd!", "Bob")

	_, err := svc.ChangeCredentials(context.Background(), alice.Account.ID, "bob@example.com", "")
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT for taken email, got %v", err)
	}

	// Keeping one's own email is not a conflict.
	if _, err := svc.ChangeCredentials(context.Background(), alice.Account.ID, "alice@example.com", ""); err != nil {
		t.Errorf("re-setting own email should succeed: %v", err)
	}
}

func TestService_ChangeCredentials_ValidatesNewValues(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	creds, _ := svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	if _, err := svc.ChangeCredentials(context.Background(), creds.Account.ID, "bad-email", ""); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
	if _, err := svc.ChangeCredentials(context.Background(), creds.Account.ID, "", "weak"); !errors.HasCode(err, errors.ErrCodeWeakPassword) {
		t.Errorf("expected WEAK_PASSWORD, got %v", err)
	}
}

func TestService_RequestPasswordReset_NoEnumeration(t *testing.T) {
	svc, _, _ := newTestService(t, NewMemoryStore())
	_, _ = svc.Register(context.Background(), "alice@example.com", "Passw0rd!", "Alice")

	if err := svc.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
		t.Errorf("existing account: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("unknown account must get the identical acknowledgement: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "not-an-email"); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
}

// failingStore simulates an unreachable backing store.
type failingStore struct{}

var errBackendDown = stderrors.New("connection refused")

func (failingStore) FindByEmail(context.Context, string) (*Account, error) {
	return nil, errBackendDown
}
func (failingStore) FindByID(context.Context, string) (*Account, error) {
	return nil, errBackendDown
}
func (failingStore) Create(context.Context, string, string, string) (*Account, error) {
	return nil, errBackendDown
}
func (failingStore) UpdateEmail(context.Context, string, string) error { return errBackendDown }
func (failingStore) UpdatePasswordHash(context.Context, string, string) error {
	return errBackendDown
}

func TestService_StorageFailures_SurfaceAsStorageError(t *testing.T) {
	svc, _, _ := newTestService(t, failingStore{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Passw0rd!", "X"); !errors.HasCode(err, errors.ErrCodeStorage) {
		t.Errorf("Register: expected STORAGE_ERROR, got %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "Passw0rd!"); !errors.HasCode(err, errors.ErrCodeStorage) {
		t.Errorf("Login: expected STORAGE_ERROR, got %v", err)
	}
	if _, err := svc.CurrentSession(ctx, "some-id"); !errors.HasCode(err, errors.ErrCodeStorage) {
		t.Errorf("CurrentSession: expected STORAGE_ERROR, got %v", err)
	}
}

func TestMemoryStore_UpdateEmail_Reindexes(t *testing.T) {
	store := NewMemoryStore()
	acct, err := store.Create(context.Background(), "old@example.com", "hash", "X")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.UpdateEmail(context.Background(), acct.ID, "new@example.com"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if _, err := store.FindByEmail(context.Background(), "old@example.com"); !stderrors.Is(err, ErrNotFound) {
		t.Error("old email must be unindexed")
	}
	found, err := store.FindByEmail(context.Background(), "new@example.com")
	if err != nil || found.ID != acct.ID {
		t.Errorf("new email must resolve: acct=%v err=%v", found, err)
	}
	if !found.UpdatedAt.After(found.CreatedAt) && !found.UpdatedAt.Equal(found.CreatedAt) {
		t.Error("UpdatedAt must be maintained")
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	acct, _ := store.Create(context.Background(), "a@b.com", "hash", "X")

	acct.Email = "mutated@example.com"
	reread, _ := store.FindByID(context.Background(), acct.ID)
	if reread.Email != "a@b.com" {
		t.Error("store must not expose internal state to mutation")
	}
}
