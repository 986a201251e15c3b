package auth_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/auth"
)

func newService(username, password string) (*auth.Service, *auth.JWTService) {
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-key",
		Issuer:     "https://api.levelup.fit",
		Audience:   "levelup-admin",
		Expiry:     15 * time.Minute,
	})
	return auth.NewService(auth.ServiceConfig{
		Username:   username,
		Password:   password,
		JWTService: jwtSvc,
		Logger:     zerolog.Nop(),
	}), jwtSvc
}

func TestService_Login(t *testing.T) {
	svc, _ := newService("coach", "s3cret")

	token, err := svc.Login("coach", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, token.ExpiresIn)

	subject, err := svc.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "coach", subject)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newService("coach", "s3cret")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "coach", "guess"},
		{"wrong username", "admin", "s3cret"},
		{"empty", "", ""},
		{"prefix of password", "coach", "s3c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(tt.username, tt.password)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestService_LoginDisabledWithoutCredentials(t *testing.T) {
	svc, _ := newService("", "")

	_, err := svc.Login("", "")
	assert.ErrorIs(t, err, auth.ErrAdminDisabled)
}

func TestService_ValidateRejectsOtherRoles(t *testing.T) {
	svc, jwtSvc := newService("coach", "s3cret")

	token, _, err := jwtSvc.GenerateAccessToken("someone", "viewer")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}
