package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService([]byte("test-secret"), 15*time.Minute)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return s
}

func signClaims(t *testing.T, method jwt.SigningMethod, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestIssueThenValidate(t *testing.T) {
	s := newTestTokens(t)
	token, err := s.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := s.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != 42 {
		t.Fatalf("unexpected user id: %d", userID)
	}
}

func TestIssueEncodesSubjectAsString(t *testing.T) {
	s := newTestTokens(t)
	token, err := s.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if sub, ok := claims["sub"].(string); !ok || sub != "7" {
		t.Fatalf("expected string sub \"7\", got %#v", claims["sub"])
	}
	if claims["jti"] == "" || claims["type"] != "access" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestValidateExpired(t *testing.T) {
	s := newTestTokens(t)
	issuedAt := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issuedAt }
	token, err := s.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	s.now = time.Now

	if _, err := s.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	other, err := NewTokenService([]byte("another-secret"), time.Minute)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	token, err := other.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := newTestTokens(t).Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestValidateRejectsTamperedPayload(t *testing.T) {
	s := newTestTokens(t)
	token, err := s.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forged := signClaims(t, jwt.SigningMethodHS256, []byte("attacker"), jwt.MapClaims{
		"sub": "2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := s.Validate(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokens(t)
	token := signClaims(t, jwt.SigningMethodHS512, []byte("test-secret"), jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := s.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestValidateClaimProblems(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	cases := map[string]jwt.MapClaims{
		"missing exp":      {"sub": "1"},
		"missing sub":      {"exp": future},
		"numeric sub":      {"sub": 1, "exp": future},
		"malformed sub":    {"sub": "abc", "exp": future},
		"negative sub":     {"sub": "-3", "exp": future},
		"refresh token":    {"sub": "1", "exp": future, "type": "refresh"},
		"not yet valid":    {"sub": "1", "exp": future, "nbf": future - 60},
		"issued in future": {"sub": "1", "exp": future, "iat": future - 60},
	}
	s := newTestTokens(t)
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			token := signClaims(t, jwt.SigningMethodHS256, []byte("test-secret"), claims)
			_, err := s.Validate(token)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected invalid token error, got %v", err)
			}
		})
	}
}

func TestValidateGarbage(t *testing.T) {
	s := newTestTokens(t)
	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat(".", 100)} {
		if _, err := s.Validate(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected invalid token error for %q, got %v", token, err)
		}
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(nil, time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenService([]byte("s"), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
