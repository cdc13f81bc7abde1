package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/contact-finder/internal/auth"
)

var (
	// ErrInvalidCredentials is returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthDisabled is returned when no operator account is configured.
	ErrAuthDisabled = errors.New("operator login is not configured")
)

// AuthService validates the single operator account and issues JWTs.
type AuthService struct {
	email        string
	passwordHash []byte
	jwt          *auth.JWTManager
}

// NewAuthService constructs a new AuthService from the configured operator.
func NewAuthService(email, passwordHash string, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		jwt:          jwtManager,
	}
}

// Enabled reports whether an operator account is configured.
func (s *AuthService) Enabled() bool {
	return s.email != "" && len(s.passwordHash) > 0
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(_ context.Context, email, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", errors.New("email and password must not be empty")
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil || !emailMatch {
		return "", ErrInvalidCredentials
	}

	return s.jwt.GenerateToken(s.email)
}

// HashPassword returns the bcrypt hash stored in OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
