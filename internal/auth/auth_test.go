package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
)

func TestGenerateAndAuthorize(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"})

	t.Run("Operator", func(t *testing.T) {
		token, err := handler.GenerateToken("ops@example.com", RoleOperator, 0)
		if err != nil {
			t.Fatalf("GenerateToken returned error: %v", err)
		}
		subject, err := handler.Authorize("Bearer " + token)
		if err != nil {
			t.Fatalf("Authorize returned error: %v", err)
		}
		if subject != "ops@example.com" {
			t.Errorf("expected subject ops@example.com, got %s", subject)
		}
		if _, err := handler.Authorize("bearer " + token); err != nil {
			t.Errorf("scheme should be case-insensitive, got %v", err)
		}
	})

	t.Run("WrongRole", func(t *testing.T) {
		token, _ := handler.GenerateToken("someone", "member", time.Hour)
		if _, err := handler.Authorize("Bearer " + token); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := handler.Authorize(""); !errors.Is(err, ErrNoToken) {
			t.Errorf("expected ErrNoToken, got %v", err)
		}
		if _, err := handler.Authorize("Basic abc"); !errors.Is(err, ErrNoToken) {
			t.Errorf("expected ErrNoToken, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		past := &AuthHandler{secret: []byte("test-secret"), now: func() time.Time { return time.Now().Add(-2 * TokenDuration) }}
		token, _ := past.GenerateToken("ops", RoleOperator, time.Hour)
		if _, err := handler.Authorize("Bearer " + token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewAuthHandler(&config.Config{JWTSecret: "other-secret"})
		token, _ := other.GenerateToken("ops", RoleOperator, time.Hour)
		if _, err := handler.Authorize("Bearer " + token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("UnsignedToken", func(t *testing.T) {
		claims := Claims{Role: RoleOperator, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if _, err := handler.Authorize("Bearer " + token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("NoSecret", func(t *testing.T) {
		empty := NewAuthHandler(&config.Config{})
		if _, err := empty.GenerateToken("ops", RoleOperator, 0); !errors.Is(err, ErrNoSecret) {
			t.Errorf("expected ErrNoSecret, got %v", err)
		}
	})
}
