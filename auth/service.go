// Package auth implements password hashing, access tokens and the signup
// and login flows built on them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/DevADOBAN/Taskhub/domain"
)

// UserStore persists user identities.
type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
}

// SignupInput is the body accepted by the signup flow.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the body accepted by the login flow.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service runs the credential flows.
type Service struct {
	users  UserStore
	hasher *Hasher
	tokens *TokenService
	logger *log.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires a Service from its collaborators.
func NewService(users UserStore, hasher *Hasher, tokens *TokenService, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Signup registers a new user and returns it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	if in.Email == "" || in.Password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	if _, err := s.users.UserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.User{}, fmt.Errorf("%w: password is too long", domain.ErrValidation)
	} else if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		Email:        in.Email,
		Name:         domain.DisplayName(in.Name, in.Email),
		PasswordHash: hash,
	})
	if err != nil {
		return domain.User{}, err
	}
	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login verifies credentials and returns a fresh access token. Unknown
// emails and wrong passwords yield the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	if in.Email == "" || in.Password == "" {
		return "", fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.users.UserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Burn the same bcrypt work as a real comparison.
		s.hasher.Verify(in.Password, s.fallbackHash())
		return "", domain.ErrInvalidCredentials
	case err != nil:
		return "", err
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Me returns the user behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID int64) (domain.User, error) {
	return s.users.UserByID(ctx, userID)
}

// Authenticate resolves a raw token to a user id. Every failure is reported
// as domain.ErrUnauthenticated; the underlying reason is kept in the chain.
func (s *Service) Authenticate(token string) (int64, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return userID, nil
}

func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("taskhub-unknown-account")
		if err != nil {
			s.logger.Errorf("build fallback hash: %v", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
