package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/auth"
)

type adminKey struct{}

// TokenValidator validates an access token and returns its subject.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// tokenFailures maps validator errors to responses, first match wins.
var tokenFailures = []struct {
	err    error
	status int
	detail string
}{
	{auth.ErrForbidden, http.StatusForbidden, "admin role required"},
	{auth.ErrAccessTokenExpired, http.StatusUnauthorized, "access token has expired"},
	{auth.ErrInvalidAccessToken, http.StatusUnauthorized, "invalid access token"},
}

// AdminOnly rejects requests that do not carry a valid admin bearer token
// and stores the admin subject in the request context.
func AdminOnly(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r.Header.Get("Authorization"))
			if problem != "" {
				denyAdmin(w, r, http.StatusUnauthorized, problem)
				return
			}

			subject, err := validator.ValidateAccessToken(token)
			if err != nil {
				status, detail := http.StatusUnauthorized, "authentication failed"
				for _, f := range tokenFailures {
					if errors.Is(err, f.err) {
						status, detail = f.status, f.detail
						break
					}
				}
				denyAdmin(w, r, status, detail)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), subject)))
		})
	}
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively. A non-empty problem describes why
// the header is unusable.
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	if token = strings.TrimSpace(rest); token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

// denyAdmin writes the problem directly since response imports this package.
func denyAdmin(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := models.NewStatusProblem(status, GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="levelup-admin"`)
	}
	problem.Write(w)
}

// WithAdmin returns a copy of ctx carrying the admin subject.
func WithAdmin(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminKey{}, subject)
}

// GetAdmin returns the admin subject from the context, or "" for requests
// that did not pass AdminOnly.
func GetAdmin(ctx context.Context) string {
	subject, _ := ctx.Value(adminKey{}).(string)
	return subject
}
