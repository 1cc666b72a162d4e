package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	require.Equal(t, zerolog.InfoLevel, newLogger(&buf, "json", "bogus").GetLevel())
	require.Equal(t, zerolog.InfoLevel, newLogger(&buf, "json", "").GetLevel())
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "debug")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger{Logger: logger, SessionHeader: "X-Session-ID"}.Middleware)
	r.Get("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Session-ID", "sess-1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "/api/v1/cart", entry["route"])
	require.Equal(t, float64(200), entry["status"])
	require.Equal(t, float64(2), entry["bytes"])
	require.Equal(t, "sess-1", entry["session_id"])
	require.Equal(t, "test-agent", entry["user_agent"])
	require.NotEmpty(t, entry["request_id"])
}

func TestRequestLoggerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "info")
	handler := RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "/boom", entry["route"])
	_, hasSession := entry["session_id"]
	require.False(t, hasSession)
}
