// Package auth mints and verifies the bearer tokens that guard operator
// routes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
)

const (
	TokenDuration = 12 * time.Hour
	RoleOperator  = "operator"
	issuer        = "circuit"
)

var (
	ErrNoToken      = errors.New("no bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("operator role required")
	ErrNoSecret     = errors.New("JWT secret is not configured")
)

// Claims are the token claims issued to operators.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthHandler struct {
	secret []byte
	now    func() time.Time
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
}

// GenerateToken signs a token for subject with role, valid for ttl
// (TokenDuration when ttl is zero).
func (h *AuthHandler) GenerateToken(subject, role string, ttl time.Duration) (string, error) {
	if len(h.secret) == 0 {
		return "", ErrNoSecret
	}
	if ttl <= 0 {
		ttl = TokenDuration
	}
	now := h.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

// Verify parses tokenString and checks its signature and expiry.
func (h *AuthHandler) Verify(tokenString string) (*Claims, error) {
	if len(h.secret) == 0 {
		return nil, ErrNoSecret
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(h.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// Authorize checks an Authorization header value and returns the operator's
// subject.
func (h *AuthHandler) Authorize(header string) (string, error) {
	tokenString, ok := bearer(header)
	if !ok {
		return "", ErrNoToken
	}
	claims, err := h.Verify(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Role != RoleOperator {
		return "", ErrForbidden
	}
	return claims.Subject, nil
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
