package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenExpiry is how long admin tokens are valid unless configured.
const DefaultAccessTokenExpiry = 1 * time.Hour

// RoleAdmin is the only role issued.
const RoleAdmin = "admin"

// Token validation errors. Everything other than expiry is reported as
// ErrInvalidAccessToken wrapping the jwt library error.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
)

// AdminClaims are the claims carried by an admin access token.
type AdminClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the HS256 secret.
	SigningKey string

	// Issuer and Audience are written into every token and required on
	// validation.
	Issuer   string
	Audience string

	// Expiry overrides DefaultAccessTokenExpiry.
	Expiry time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// JWTService signs and validates admin access tokens. There is no refresh
// flow; an expired token means logging in again.
type JWTService struct {
	cfg    JWTConfig
	key    []byte
	parser *jwt.Parser
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultAccessTokenExpiry
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTService{
		cfg: cfg,
		key: []byte(cfg.SigningKey),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(cfg.Now),
		),
	}
}

// Expiry returns the configured token lifetime.
func (s *JWTService) Expiry() time.Duration {
	return s.cfg.Expiry
}

// GenerateAccessToken signs a token for subject with role and returns it
// with its expiry time.
func (s *JWTService) GenerateAccessToken(subject, role string) (string, time.Time, error) {
	issuedAt := s.cfg.Now()
	expiresAt := issuedAt.Add(s.cfg.Expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks the signature, issuer, audience and lifetime of
// a token and returns its claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}
	return claims, nil
}
