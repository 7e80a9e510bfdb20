package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

// UserStore exposes the user lookup and creation operations required by the
// auth service.
type UserStore interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
}

// SessionStore captures the persistence interactions for refresh sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, refreshToken string) (persistence.Session, error)
	UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	RevokeSession(ctx context.Context, refreshToken string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthService coordinates registration, sign-in, and session lifecycle.
type AuthService struct {
	users          UserStore
	sessions       SessionStore
	tokens         *TokenIssuer
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	refreshTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserStore, sessions SessionStore, tokens *TokenIssuer, idGenerator, tokenGenerator func() string, now func() time.Time, refreshTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		tokens:         tokens,
		hashPassword:   HashPassword,
		verifyPassword: VerifyPassword,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		refreshTTL:     refreshTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register validates the sign-up input, persists the account, and issues an
// initial session.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "account registered")
	}()

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, mailErr := mail.ParseAddress(email); mailErr != nil {
		vErr.add("email", "email is invalid")
	}
	if len(params.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		vErr.add("name", "name must not be blank")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil {
		err = ErrAlreadyExists
		return
	} else if !errors.Is(lookupErr, persistence.ErrNotFound) {
		err = lookupErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		Name:         params.Name,
		PasswordHash: hash,
		Preferences:  DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrAlreadyExists) {
			err = ErrAlreadyExists
		}
		return
	}

	var session Session
	session, err = s.issueSession(ctx, user.ID)
	if err != nil {
		return
	}

	result = AuthResult{User: user, Session: session}
	return
}

// Authenticate validates credentials and issues a fresh session.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(user.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.issueSession(ctx, user.ID)
	if err != nil {
		return
	}

	result = AuthResult{User: user, Session: session}
	return
}

// RefreshSession rotates a refresh token and issues a new access token.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session store not configured")
		return
	}

	token := strings.TrimSpace(params.RefreshToken)
	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "session refreshed")
	}()

	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	var stored persistence.Session
	stored, err = s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	now := s.now()
	if stored.RevokedAt != nil && !stored.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !stored.ExpiresAt.IsZero() && !stored.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	stored.RefreshToken = s.tokenGenerator()
	stored.UpdatedAt = now
	stored.ExpiresAt = now.Add(s.refreshTTL)
	stored, err = s.sessions.UpdateSession(ctx, stored)
	if err != nil {
		return
	}

	var accessToken string
	var expiresAt time.Time
	accessToken, expiresAt, err = s.tokens.Issue(user.ID)
	if err != nil {
		return
	}

	result = AuthResult{
		User: user,
		Session: Session{
			AccessToken:  accessToken,
			RefreshToken: stored.RefreshToken,
			ExpiresAt:    expiresAt,
		},
	}
	return
}

// Logout revokes the supplied refresh token when it belongs to the principal.
// Access tokens are stateless and lapse on their own.
func (s *AuthService) Logout(ctx context.Context, params LogoutParams) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}

	token := strings.TrimSpace(params.RefreshToken)
	logger := s.loggerWith(ctx, "Logout", "user_id", params.Principal.UserID, "token_provided", token != "")

	if token == "" {
		logger.InfoContext(ctx, "logout without refresh token; nothing to revoke")
		return nil
	}

	stored, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.InfoContext(ctx, "logout for unknown refresh token")
			return nil
		}
		return err
	}
	if stored.UserID != params.Principal.UserID {
		logger.ErrorContext(ctx, "refresh token belongs to a different user", "error_kind", "unauthorized")
		return ErrUnauthorized
	}

	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err)
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateAccessToken parses a bearer access token and resolves its principal.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	if s.users == nil {
		return Principal{}, fmt.Errorf("user store not configured")
	}

	userID, err := s.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return Principal{}, err
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	return Principal{UserID: userID}, nil
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (Session, error) {
	accessToken, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return Session{}, err
	}

	session := Session{
		AccessToken:  accessToken,
		RefreshToken: s.tokenGenerator(),
		ExpiresAt:    expiresAt,
	}

	if s.sessions == nil {
		return session, nil
	}

	now := s.now()
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, err
	}

	_, err = s.sessions.CreateSession(ctx, persistence.Session{
		ID:           s.idGenerator(),
		UserID:       userID,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    now.Add(s.refreshTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Session{}, err
	}

	return session, nil
}
