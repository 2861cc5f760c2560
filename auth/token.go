package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const accessTokenType = "access"

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and bad claims.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenService issues and validates HS256 access tokens carrying a user id.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must not be empty.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	return &TokenService{
		secret: secret,
		ttl:    ttl,
		// Time based claims are checked below against s.now.
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation()),
		now:    time.Now,
	}, nil
}

// Issue returns a signed token asserting userID until the configured TTL elapses.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"jti":  uuid.NewString(),
		"type": accessTokenType,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and time claims of token and returns the
// user id it asserts.
func (s *TokenService) Validate(token string) (int64, error) {
	parsed, err := s.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: invalid claims", ErrTokenInvalid)
	}

	if _, ok := claims["exp"]; !ok {
		return 0, fmt.Errorf("%w: missing exp", ErrTokenInvalid)
	}
	now := s.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return 0, ErrTokenExpired
	}
	if !claims.VerifyNotBefore(now, false) {
		return 0, fmt.Errorf("%w: token not valid yet", ErrTokenInvalid)
	}
	if !claims.VerifyIssuedAt(now, false) {
		return 0, fmt.Errorf("%w: token used before issued", ErrTokenInvalid)
	}
	if typ, present := claims["type"]; present && typ != accessTokenType {
		return 0, fmt.Errorf("%w: unexpected token type", ErrTokenInvalid)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return 0, fmt.Errorf("%w: missing sub", ErrTokenInvalid)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: malformed sub", ErrTokenInvalid)
	}
	return userID, nil
}
