// Package auth implements session issuance and the route authorization
// policy. Sessions are stateless signed tokens: there is no server-side
// revocation list, so expiry is the only lifecycle bound.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
)

// SessionTTL is how long an issued session stays valid. There is no refresh;
// an expired session requires a fresh login.
const SessionTTL = 24 * time.Hour

// Session is the authenticated identity extracted from a valid token.
type Session struct {
	UserID uuid.UUID
	Role   domain.Role
}

// sessionClaims is the JWT payload for a session token.
type sessionClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with an HMAC secret.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue produces a signed token embedding the user's id and role,
// expiring after SessionTTL.
func (t *TokenManager) Issue(user domain.User) (string, error) {
	now := t.now()
	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Resolve verifies the token's signature and expiry and returns the session
// it carries. Any verification failure, malformed subject, or unknown role
// yields (nil, false): the caller is treated as anonymous, never handed an
// error. This keeps login-failure details out of caller-visible paths.
func (t *TokenManager) Resolve(token string) (*Session, bool) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return nil, false
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return nil, false
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.Valid() {
		return nil, false
	}
	return &Session{UserID: userID, Role: claims.Role}, true
}
