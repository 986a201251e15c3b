// Package auth provides the admin login gate and its access tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin login is not configured")
	ErrForbidden          = errors.New("insufficient role")
)

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	Username   string
	Password   string
	JWTService *JWTService
	Logger     zerolog.Logger
}

// Service checks admin credentials and issues tokens.
type Service struct {
	username []byte
	password []byte
	jwt      *JWTService
	logger   zerolog.Logger
}

// NewService creates a new auth service. With an empty username or
// password every login fails with ErrAdminDisabled.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		username: []byte(cfg.Username),
		password: []byte(cfg.Password),
		jwt:      cfg.JWTService,
		logger:   cfg.Logger,
	}
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
}

// Login checks the credentials and returns an admin access token.
func (s *Service) Login(username, password string) (*Token, error) {
	if len(s.username) == 0 || len(s.password) == 0 {
		return nil, ErrAdminDisabled
	}

	userOK := equal(s.username, []byte(username))
	passOK := equal(s.password, []byte(password))
	if !userOK || !passOK {
		s.logger.Warn().Str("username", username).Msg("admin login failed")
		return nil, ErrInvalidCredentials
	}

	tokenString, expiresAt, err := s.jwt.GenerateAccessToken(username, RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Msg("admin logged in")
	return &Token{
		AccessToken: tokenString,
		ExpiresAt:   expiresAt,
		ExpiresIn:   s.jwt.Expiry(),
	}, nil
}

// ValidateAccessToken validates a token and returns its subject. Tokens
// without the admin role are rejected with ErrForbidden.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}
	if claims.Role != RoleAdmin {
		return "", ErrForbidden
	}
	return claims.Subject, nil
}

// equal compares in constant time regardless of input lengths.
func equal(want, got []byte) bool {
	a := sha256.Sum256(want)
	b := sha256.Sum256(got)
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
