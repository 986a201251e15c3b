package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"

	"github.com/levelup/levelup/internal/api/middleware"
)

func panicHandler(v interface{}) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(v)
	})
}

func TestRecovery_ReturnsProblem(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.RequestID(middleware.Recovery(zerolog.New(&buf))(panicHandler("nil profile")))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/logs/2026-10-15/summary", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/v1/logs/2026-10-15/summary")

	entries := decodeLogLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "panic recovered", entries[0]["message"])
	assert.Equal(t, "nil profile", entries[0]["panic"])
	assert.NotEmpty(t, entries[0]["stack"])
}

func TestRecovery_UsesRequestLogger(t *testing.T) {
	var rootBuf, reqBuf bytes.Buffer

	handler := middleware.RequestID(
		middleware.Logger(zerolog.New(&reqBuf))(
			middleware.Recovery(zerolog.New(&rootBuf))(panicHandler("boom")),
		),
	)

	req := httptest.NewRequest(http.MethodPost, "/v1/foods/resolve", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req_panic")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Zero(t, rootBuf.Len())

	entries := decodeLogLines(t, &reqBuf)
	require.Len(t, entries, 2)
	assert.Equal(t, "panic recovered", entries[0]["message"])
	assert.Equal(t, "req_panic", entries[0]["request_id"])
	assert.Equal(t, float64(500), entries[1]["status"])
}

func TestRecovery_MarksSpan(t *testing.T) {
	sr, cleanup := setupTestTracer()
	defer cleanup()

	handler := middleware.Tracing("levelup-api")(middleware.Recovery(zerolog.Nop())(panicHandler("boom")))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/foods", http.NoBody))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(panicHandler(http.ErrAbortHandler))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/foods", http.NoBody))
	})
}
