package middleware

import (
	"mime"
	"net/http"

	"github.com/levelup/levelup/internal/api/models"
)

// ContentTypeJSON sets the Content-Type header to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only set if not already set (allows handlers to override)
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON checks that the request Content-Type is application/json for
// POST, PUT, and PATCH requests. A missing Content-Type is accepted.
func RequireJSON(next http.Handler) http.Handler {
	return RequireContentType("application/json")(next)
}

// RequireContentType rejects POST, PUT and PATCH requests whose media type
// is not the given one with 415 Unsupported Media Type.
func RequireContentType(mediaType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				if ct := r.Header.Get("Content-Type"); ct != "" {
					if got, _, err := mime.ParseMediaType(ct); err != nil || got != mediaType {
						problem := models.NewProblem(
							models.ProblemTypeUnsupportedMedia,
							"Unsupported media type",
							http.StatusUnsupportedMediaType,
							GetRequestID(r.Context()),
						)
						problem.Detail = "Content-Type must be " + mediaType
						problem.Instance = r.URL.Path
						problem.Write(w)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
