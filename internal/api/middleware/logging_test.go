package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/levelup/internal/api/middleware"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(middleware.Logger(zerolog.New(&buf)))
	r.Get("/v1/logs/{date}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"date":"2026-10-15"}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/logs/2026-10-15", http.NoBody)
	req.Header.Set("User-Agent", "levelup-web")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := decodeLogLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]

	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/logs/2026-10-15", entry["path"])
	assert.Equal(t, "/v1/logs/{date}", entry["route"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(len(`{"date":"2026-10-15"}`)), entry["bytes"])
	assert.Equal(t, "levelup-web", entry["user_agent"])
	assert.NotEmpty(t, entry["duration"])
	assert.NotContains(t, entry, "trace_id")
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{"success", "/v1/foods", http.StatusOK, "info"},
		{"client error", "/v1/profile", http.StatusNotFound, "warn"},
		{"validation error", "/v1/calculator/estimate", http.StatusUnprocessableEntity, "warn"},
		{"provider failure", "/v1/foods/analyze", http.StatusBadGateway, "error"},
		{"health probe", "/health", http.StatusOK, "debug"},
		{"failing probe", "/v1/ops/ready", http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			entries := decodeLogLines(t, &buf)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0]["level"])
			assert.Equal(t, float64(tt.status), entries[0]["status"])
		})
	}
}

func TestLogger_IncludesTraceID(t *testing.T) {
	_, cleanup := setupTestTracer()
	defer cleanup()

	var buf bytes.Buffer
	handler := middleware.Tracing("levelup-api")(
		middleware.Logger(zerolog.New(&buf))(okHandler()),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/foods", http.NoBody))

	entries := decodeLogLines(t, &buf)
	require.Len(t, entries, 1)

	traceID, ok := entries[0]["trace_id"].(string)
	require.True(t, ok)
	assert.Len(t, traceID, 32)

	spanID, ok := entries[0]["span_id"].(string)
	require.True(t, ok)
	assert.Len(t, spanID, 16)
}

func TestLogger_ContextLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer

	handler := middleware.RequestID(
		middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			zerolog.Ctx(r.Context()).Info().Msg("profile deleted")
			w.WriteHeader(http.StatusNoContent)
		})),
	)

	req := httptest.NewRequest(http.MethodDelete, "/v1/profile", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req_fixed")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := decodeLogLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "profile deleted", entries[0]["message"])
	assert.Equal(t, "req_fixed", entries[0]["request_id"])
	assert.Equal(t, "req_fixed", entries[1]["request_id"])
	assert.Equal(t, float64(204), entries[1]["status"])
}
