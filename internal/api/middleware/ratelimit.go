package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/models"
)

// RateLimitConfig is a fixed-window request budget.
type RateLimitConfig struct {
	// Name identifies the budget in logs.
	Name         string
	RequestLimit int
	WindowLength time.Duration
}

// Budgets used by the router.
var (
	// AuthRateLimit guards admin login against password guessing.
	AuthRateLimit = RateLimitConfig{Name: "auth", RequestLimit: 10, WindowLength: time.Minute}

	// ExpensiveRateLimit guards image analysis, which calls a paid provider.
	ExpensiveRateLimit = RateLimitConfig{Name: "analyze", RequestLimit: 30, WindowLength: time.Minute}

	// StandardRateLimit covers every other endpoint.
	StandardRateLimit = RateLimitConfig{Name: "standard", RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP. Run chi's RealIP first so
// X-Forwarded-For is honoured.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return newLimiter(cfg, httprate.KeyByRealIP)
}

// RateLimitByAdmin limits requests per admin subject set by AdminOnly.
// Requests without one fall back to the client IP.
func RateLimitByAdmin(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return newLimiter(cfg, keyByAdminOrIP)
}

func newLimiter(cfg RateLimitConfig, key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByAdminOrIP(r *http.Request) (string, error) {
	if subject := GetAdmin(r.Context()); subject != "" {
		return "admin:" + subject, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitExceeded answers 429 with a Retry-After of one full window, since
// httprate does not expose when the current window resets.
func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Round(time.Second).Seconds()))

	return func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Warn().
			Str("limit", cfg.Name).
			Int("request_limit", cfg.RequestLimit).
			Msg("rate limit exceeded")

		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path

		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
