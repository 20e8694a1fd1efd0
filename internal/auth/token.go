package auth

import (
	"errors"
	"strings"
	"time"

	"eventgraph/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried inside the bearer token.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify decodes a token into an authenticated Identity. Any failure yields an
// error; callers degrade to the anonymous identity rather than rejecting the
// transport.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return Anonymous(), err
	}
	if !token.Valid {
		return Anonymous(), errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Anonymous(), errors.New("missing subject")
	}
	return Identity{
		UserID:        claims.Subject,
		Role:          claims.Role,
		Authenticated: true,
	}, nil
}

// BearerToken strips an optional "Bearer " prefix from an Authorization value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
