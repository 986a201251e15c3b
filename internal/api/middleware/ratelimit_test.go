package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/api/middleware"
	"github.com/levelup/levelup/internal/api/models"
)

// hit is one request against a limiter.
type hit struct {
	addr  string
	admin string
}

// serveHits sends each hit through handler and returns the status codes.
func serveHits(handler http.Handler, hits ...hit) []int {
	codes := make([]int, 0, len(hits))
	for _, h := range hits {
		req := httptest.NewRequest(http.MethodPost, "/v1/foods/resolve", http.NoBody)
		req.RemoteAddr = h.addr
		if h.admin != "" {
			req = req.WithContext(middleware.WithAdmin(req.Context(), h.admin))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	return codes
}

func TestRateLimitByIP(t *testing.T) {
	const (
		ok      = http.StatusOK
		limited = http.StatusTooManyRequests
	)

	tests := []struct {
		name  string
		limit int
		hits  []hit
		want  []int
	}{
		{
			name:  "within budget",
			limit: 3,
			hits:  []hit{{addr: "203.0.113.1:1"}, {addr: "203.0.113.1:2"}, {addr: "203.0.113.1:3"}},
			want:  []int{ok, ok, ok},
		},
		{
			name:  "over budget",
			limit: 2,
			hits:  []hit{{addr: "203.0.113.2:1"}, {addr: "203.0.113.2:1"}, {addr: "203.0.113.2:1"}},
			want:  []int{ok, ok, limited},
		},
		{
			name:  "separate budgets per address",
			limit: 1,
			hits:  []hit{{addr: "203.0.113.3:1"}, {addr: "203.0.113.3:1"}, {addr: "203.0.113.4:1"}},
			want:  []int{ok, limited, ok},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := middleware.RateLimitConfig{Name: "test", RequestLimit: tt.limit, WindowLength: time.Minute}
			handler := middleware.RateLimitByIP(cfg)(okHandler())

			assert.Equal(t, tt.want, serveHits(handler, tt.hits...))
		})
	}
}

func TestRateLimitByAdmin(t *testing.T) {
	cfg := middleware.RateLimitConfig{Name: "admin", RequestLimit: 2, WindowLength: time.Minute}

	t.Run("one budget per admin across addresses", func(t *testing.T) {
		handler := middleware.RateLimitByAdmin(cfg)(okHandler())

		codes := serveHits(handler,
			hit{addr: "198.51.100.1:1000", admin: "coach"},
			hit{addr: "198.51.100.2:1000", admin: "coach"},
			hit{addr: "198.51.100.3:1000", admin: "coach"},
			hit{addr: "198.51.100.3:1000", admin: "nutritionist"},
		)

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)
	})

	t.Run("anonymous requests use the address", func(t *testing.T) {
		handler := middleware.RateLimitByAdmin(cfg)(okHandler())

		codes := serveHits(handler,
			hit{addr: "192.0.2.10:1234"},
			hit{addr: "192.0.2.11:1234"},
			hit{addr: "192.0.2.11:1234"},
			hit{addr: "192.0.2.11:1234"},
		)

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("behind AdminOnly", func(t *testing.T) {
		authService, _ := createTestAuthService(t)
		token, err := authService.Login("coach", "s3cret")
		require.NoError(t, err)

		handler := middleware.AdminOnly(authService)(middleware.RateLimitByAdmin(cfg)(okHandler()))

		var codes []int
		for _, addr := range []string{"198.18.0.1:1", "198.18.0.2:1", "198.18.0.3:1"} {
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist", http.NoBody)
			req.RemoteAddr = addr
			req.Header.Set("Authorization", "Bearer "+token.AccessToken)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}

func TestRateLimit_ExceededProblem(t *testing.T) {
	tests := []struct {
		name           string
		window         time.Duration
		wantRetryAfter string
	}{
		{"minute window", time.Minute, "60"},
		{"short window", 10 * time.Second, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := middleware.RateLimitConfig{Name: "analyze", RequestLimit: 1, WindowLength: tt.window}
			handler := middleware.RequestID(middleware.RateLimitByIP(cfg)(okHandler()))

			var rec *httptest.ResponseRecorder
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(http.MethodPost, "/v1/foods/analyze", http.NoBody)
				req.RemoteAddr = "198.18.1.1:4000"
				rec = httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
			}

			require.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, tt.wantRetryAfter, rec.Header().Get("Retry-After"))
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, http.StatusTooManyRequests, problem.Status)
			assert.Equal(t, "/v1/foods/analyze", problem.Instance)
			assert.Equal(t, rec.Header().Get(middleware.RequestIDHeader), problem.TraceID)
		})
	}
}

func TestRateLimitBudgets(t *testing.T) {
	assert.Equal(t, 10, middleware.AuthRateLimit.RequestLimit)
	assert.Equal(t, 30, middleware.ExpensiveRateLimit.RequestLimit)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	for _, cfg := range []middleware.RateLimitConfig{middleware.AuthRateLimit, middleware.ExpensiveRateLimit, middleware.StandardRateLimit} {
		assert.Equal(t, time.Minute, cfg.WindowLength, cfg.Name)
	}
}
