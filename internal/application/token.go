package application

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the JWT payload carried by issued access tokens.
type accessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. A non-positive ttl defaults to 30
// minutes; a nil now defaults to time.Now.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a new access token for the given user and returns it with its
// expiry instant.
func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	if t == nil {
		return "", time.Time{}, errors.New("token issuer not configured")
	}

	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)
	claims := &accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a signed access token and returns the user ID it carries.
// Expired or malformed tokens yield ErrInvalidCredentials.
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	if t == nil {
		return "", errors.New("token issuer not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidCredentials
	}
	return claims.UserID, nil
}
