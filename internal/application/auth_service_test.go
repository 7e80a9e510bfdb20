package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/todo-platform/internal/persistence"
	"github.com/example/todo-platform/internal/persistence/memory"
	"github.com/example/todo-platform/internal/testfixtures"
)

func fakeHash(password string) (string, error) { return "hash:" + password, nil }

func fakeVerify(hash, password string) error {
	if hash != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func newTestAuthService(store *memory.Store, clock *testfixtures.Clock) *AuthService {
	ids := testfixtures.NewIDGenerator("id")
	tokens := testfixtures.NewIDGenerator("refresh")
	svc := NewAuthService(store, store, NewTokenIssuer("test-secret", 30*time.Minute, clock.NowFunc()), ids.NextFunc(), tokens.NextFunc(), clock.NowFunc(), 7*24*time.Hour, nil)
	svc.hashPassword = fakeHash
	svc.verifyPassword = fakeVerify
	return svc
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates an account with default preferences and a session", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		name := "Alice"
		result, err := svc.Register(context.Background(), RegisterParams{Email: "Alice@Example.com", Password: "password123", Name: &name})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		if result.User.Email != "alice@example.com" {
			t.Fatalf("expected normalized email, got %q", result.User.Email)
		}
		if result.User.Preferences != DefaultPreferences() {
			t.Fatalf("expected default preferences, got %#v", result.User.Preferences)
		}
		if result.User.PasswordHash != "hash:password123" {
			t.Fatalf("unexpected stored hash %q", result.User.PasswordHash)
		}
		if result.Session.AccessToken == "" || result.Session.RefreshToken == "" {
			t.Fatalf("expected a full session, got %#v", result.Session)
		}
		if want := clock.Now().Add(30 * time.Minute); !result.Session.ExpiresAt.Equal(want) {
			t.Fatalf("expected access expiry %v, got %v", want, result.Session.ExpiresAt)
		}

		stored, err := store.GetUserByEmail(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("expected user to be persisted: %v", err)
		}
		if stored.ID != result.User.ID {
			t.Fatalf("stored user %q does not match result %q", stored.ID, result.User.ID)
		}
		if _, err := store.GetSession(context.Background(), result.Session.RefreshToken); err != nil {
			t.Fatalf("expected refresh session to be persisted: %v", err)
		}
	})

	t.Run("collects all field errors at once", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(memory.NewStore(), testfixtures.NewClock(time.Time{}))

		blank := "   "
		_, err := svc.Register(context.Background(), RegisterParams{Email: "not-an-email", Password: "short", Name: &blank})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "password", "name"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error for field %q, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects duplicate emails case-insensitively", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		svc := newTestAuthService(store, testfixtures.NewClock(time.Time{}))

		if _, err := svc.Register(context.Background(), RegisterParams{Email: "dup@example.com", Password: "password123"}); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		_, err := svc.Register(context.Background(), RegisterParams{Email: "DUP@example.com", Password: "password123"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "User@Example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.User.ID != registered.User.ID {
			t.Fatalf("expected user %q, got %q", registered.User.ID, result.User.ID)
		}
		if result.Session.RefreshToken == registered.Session.RefreshToken {
			t.Fatal("expected a fresh refresh token per sign-in")
		}
	})

	t.Run("rejects a wrong password with the credentials sentinel", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		if _, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "wrong-password"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("treats an unknown account like a wrong password", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(memory.NewStore(), testfixtures.NewClock(time.Time{}))

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.com", Password: "password123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RefreshSession(t *testing.T) {
	t.Parallel()

	t.Run("rotates the refresh token and invalidates the old one", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		clock.Advance(time.Hour)
		refreshed, err := svc.RefreshSession(context.Background(), RefreshSessionParams{RefreshToken: registered.Session.RefreshToken})
		if err != nil {
			t.Fatalf("RefreshSession failed: %v", err)
		}
		if refreshed.Session.RefreshToken == registered.Session.RefreshToken {
			t.Fatal("expected the refresh token to rotate")
		}

		_, err = svc.RefreshSession(context.Background(), RefreshSessionParams{RefreshToken: registered.Session.RefreshToken})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected the old token to be rejected, got %v", err)
		}
	})

	t.Run("rejects an expired session", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		clock.Advance(8 * 24 * time.Hour)
		_, err = svc.RefreshSession(context.Background(), RefreshSessionParams{RefreshToken: registered.Session.RefreshToken})
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects a revoked session", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if err := svc.Logout(context.Background(), LogoutParams{Principal: Principal{UserID: registered.User.ID}, RefreshToken: registered.Session.RefreshToken}); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}

		_, err = svc.RefreshSession(context.Background(), RefreshSessionParams{RefreshToken: registered.Session.RefreshToken})
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("requires a token", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		_, err := svc.RefreshSession(context.Background(), RefreshSessionParams{RefreshToken: "  "})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	t.Run("refuses to revoke another user's session", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		svc := newTestAuthService(store, testfixtures.NewClock(time.Time{}))

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "owner@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		err = svc.Logout(context.Background(), LogoutParams{Principal: Principal{UserID: "someone-else"}, RefreshToken: registered.Session.RefreshToken})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := store.GetSession(context.Background(), registered.Session.RefreshToken); err != nil {
			t.Fatalf("session should survive a rejected logout: %v", err)
		}
	})

	t.Run("tolerates an unknown refresh token", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		if err := svc.Logout(context.Background(), LogoutParams{Principal: Principal{UserID: "user-1"}, RefreshToken: "never-issued"}); err != nil {
			t.Fatalf("expected unknown token to be a no-op, got %v", err)
		}
	})
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	t.Parallel()

	t.Run("resolves the principal of a live token", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		principal, err := svc.ValidateAccessToken(context.Background(), registered.Session.AccessToken)
		if err != nil {
			t.Fatalf("ValidateAccessToken failed: %v", err)
		}
		if principal.UserID != registered.User.ID {
			t.Fatalf("expected principal %q, got %q", registered.User.ID, principal.UserID)
		}
	})

	t.Run("rejects a token after expiry", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		clock.Advance(31 * time.Minute)
		_, err = svc.ValidateAccessToken(context.Background(), registered.Session.AccessToken)
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects a token for a deleted account", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		clock := testfixtures.NewClock(time.Time{})
		svc := newTestAuthService(store, clock)

		registered, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if err := store.DeleteUser(context.Background(), registered.User.ID); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}

		_, err = svc.ValidateAccessToken(context.Background(), registered.Session.AccessToken)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(memory.NewStore(), testfixtures.NewClock(time.Time{}))
		_, err := svc.ValidateAccessToken(context.Background(), "not.a.jwt")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_PropagatesStoreFailures(t *testing.T) {
	t.Parallel()

	expected := errors.New("store down")
	store := &failingUserStore{err: expected}
	svc := NewAuthService(store, memory.NewStore(), NewTokenIssuer("s", time.Minute, nil), nil, nil, nil, time.Hour, nil)
	svc.hashPassword = fakeHash
	svc.verifyPassword = fakeVerify

	if _, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "password123"}); !errors.Is(err, expected) {
		t.Fatalf("Register: expected %v, got %v", expected, err)
	}
	if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "password123"}); !errors.Is(err, expected) {
		t.Fatalf("Authenticate: expected %v, got %v", expected, err)
	}
}

type failingUserStore struct {
	err error
}

func (f *failingUserStore) CreateUser(ctx context.Context, user persistence.User) error {
	return f.err
}

func (f *failingUserStore) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return persistence.User{}, f.err
}

func (f *failingUserStore) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	return persistence.User{}, f.err
}
