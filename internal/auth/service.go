// Package auth registers couriers, signs them in and issues the bearer
// tokens that scope every stored configuration and entry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"motocusto/internal/core"
	"motocusto/internal/ports"
)

const minPasswordLength = 6

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	users      ports.UserStore
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost (tests use bcrypt.MinCost).
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(users ports.UserStore, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is what a successful sign-in returns to the client.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, error) {
	u := core.User{Name: strings.TrimSpace(name), Email: strings.ToLower(strings.TrimSpace(email))}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if len(password) < minPasswordLength {
		return core.User{}, fmt.Errorf("%w: password must have at least %d characters", core.ErrInvalidUser, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, err
	}
	return created, nil
}

// SignIn checks the credentials and issues a token. Unknown email and wrong
// password both yield core.ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, core.ErrInvalidCredentials
	}

	token, expiresAt, err := s.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Issue signs an HS256 token whose subject is userID.
func (s *Service) Issue(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    "motocusto",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the user ID carried by a valid, unexpired token.
func (s *Service) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
