// Package auth provides credential hashing and signed session tokens for the
// request layer. Sessions are JWTs carried in an HTTP-only cookie; the token
// claims identify the user and their role so handlers can gate admin routes
// without a database round trip.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

// SessionCookie is the cookie name carrying the session token.
const SessionCookie = "session"

// SessionTTL is how long a login stays valid.
const SessionTTL = 24 * time.Hour

// ErrInvalidCredentials covers both unknown usernames and wrong passwords so
// login failures do not leak which usernames exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidSession is returned for missing, malformed, or expired tokens.
var ErrInvalidSession = errors.New("invalid session")

// Session identifies an authenticated caller.
type Session struct {
	UserID   string
	Username string
	Role     model.Role
}

// Claims is the JWT payload for a session.
type Claims struct {
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a shared HMAC secret.
type Manager struct {
	secret []byte
}

// NewManager constructs a Manager. The secret comes from configuration; an
// empty secret is a deployment error, not something to default silently.
func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	return &Manager{secret: []byte(secret)}, nil
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a stored bcrypt hash against a login attempt.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Issue signs a session token for the given user.
func (m *Manager) Issue(user *model.User, now time.Time) (string, error) {
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the session it
// carries.
func (m *Manager) Verify(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	return &Session{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
