package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, user_id, refresh_token, expires_at, revoked_at, created_at, updated_at`

// CreateSession stores a new refresh-token session for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.RefreshToken) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshToken,
		formatTime(session.ExpiresAt),
		nullTime(session.RevokedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	return session, nil
}

// GetSession retrieves a session by its refresh token value.
func (r *SessionRepository) GetSession(ctx context.Context, refreshToken string) (persistence.Session, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE refresh_token = ?`, token)
	return r.scanSession(row)
}

// UpdateSession rewrites the mutable fields of an existing session, keyed by ID.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || strings.TrimSpace(session.RefreshToken) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	query := `
		UPDATE sessions
		SET refresh_token = ?, expires_at = ?, revoked_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		session.RefreshToken,
		formatTime(session.ExpiresAt),
		nullTime(session.RevokedAt),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return session, nil
}

// RevokeSession marks the session carrying the refresh token as revoked.
func (r *SessionRepository) RevokeSession(ctx context.Context, refreshToken string, revokedAt time.Time) (persistence.Session, error) {
	session, err := r.GetSession(ctx, refreshToken)
	if err != nil {
		return persistence.Session{}, err
	}

	stamp := revokedAt.UTC()
	session.RevokedAt = &stamp
	session.UpdatedAt = stamp

	return r.UpdateSession(ctx, session)
}

// DeleteExpiredSessions removes sessions whose expiry precedes the reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *SessionRepository) scanSession(row *sql.Row) (persistence.Session, error) {
	var session persistence.Session
	var revokedAt sql.NullString
	var expiresAtStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&expiresAtStr,
		&revokedAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if revokedAt.Valid {
		if session.RevokedAt, err = parseTimePtr(revokedAt.String); err != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse revoked_at: %w", err)
		}
	}
	if session.ExpiresAt, err = parseTime(expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return session, nil
}
