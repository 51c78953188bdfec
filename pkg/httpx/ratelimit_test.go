package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lockhaven/identity/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")

		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	t.Run("extracts field from JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader(`{"email":"alice@example.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		extractor := httpx.JSONFieldKeyExtractor("email")
		require.Equal(t, "alice@example.com", extractor(req))
	})

	t.Run("body remains readable downstream", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader(`{"email":"bob@example.com"}`))
		req.Header.Set("Content-Type", "application/json")

		extractor := httpx.JSONFieldKeyExtractor("email")
		require.Equal(t, "bob@example.com", extractor(req))

		buf := make([]byte, 64)
		n, _ := req.Body.Read(buf)
		require.Contains(t, string(buf[:n]), "bob@example.com")
	})

	t.Run("missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		extractor := httpx.JSONFieldKeyExtractor("email")
		require.Equal(t, "", extractor(req))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
		extractor := httpx.JSONFieldKeyExtractor("email")
		require.Equal(t, "", extractor(req))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"email":"carol@example.com"}`))
	req.RemoteAddr = "192.168.1.1:12345"

	extractor := httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.JSONFieldKeyExtractor("email"),
	)
	require.Equal(t, "192.168.1.1:carol@example.com", extractor(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	limit := httpx.RateLimitConfig{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		Burst:             2,
	}

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
		httpx.RateLimitByIP(limit),
	)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("allows within limit then rejects", func(t *testing.T) {
		require.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
		require.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
		require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1000"))
	})

	t.Run("limits are per key", func(t *testing.T) {
		require.Equal(t, http.StatusOK, do("10.0.0.2:1000"))
	})

	t.Run("429 carries Retry-After", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
	})
}
