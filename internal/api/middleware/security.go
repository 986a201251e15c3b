package middleware

import (
	"net/http"

	"github.com/levelup/levelup/internal/api/models"
)

// securityHeaders are set on every response.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), camera=(), microphone=()"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders adds securityHeaders to all HTTP responses. Handlers run
// afterwards and may override any of them.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// probePaths are answered over plain HTTP so load balancer health checks pass.
var probePaths = map[string]bool{
	"/health":        true,
	"/v1/ops/health": true,
	"/v1/ops/ready":  true,
}

// RequireTLS rejects requests that the load balancer reports as plain HTTP
// via X-Forwarded-Proto. Requests without the header are let through, as
// are health probes. A disabled middleware passes everything.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := r.Header.Get("X-Forwarded-Proto")
			if proto == "" || proto == "https" || probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			problem := models.NewProblem(
				"https://api.levelup.fit/problems/tls-required",
				"TLS required",
				http.StatusForbidden,
				GetRequestID(r.Context()),
			)
			problem.Detail = "LevelUp only accepts HTTPS requests"
			problem.Instance = r.URL.Path
			problem.Write(w)
		})
	}
}
