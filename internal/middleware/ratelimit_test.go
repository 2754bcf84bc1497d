package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRateLimit_Defaults(t *testing.T) {
	mw := NewRateLimitMiddleware(-1, 0)
	assert.Equal(t, -1, mw.generalRPM)
	assert.Equal(t, 10, mw.authRPM)
}

func TestRateLimit_Buckets(t *testing.T) {
	cases := map[string]bucket{
		"/health":                bucketNone,
		"/metrics":               bucketNone,
		"/api/v1/events":         bucketNone,
		"/api/v1/auth/login":     bucketAuth,
		"/API/V1/AUTH/refresh":   bucketAuth,
		"/api/v1/trash":          bucketGeneral,
		"/api/v1/tables/sales/1": bucketGeneral,
	}
	for path, want := range cases {
		assert.Equal(t, want, bucketFor(path), path)
	}
}

func TestRateLimit_UnlimitedGeneral(t *testing.T) {
	h := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "/api/v1/trash").Code, "request %d", i)
	}
}

func TestRateLimit_AuthBurstOfOne(t *testing.T) {
	h := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, http.MethodPost, "/api/v1/auth/login").Code)

	rec := hit(h, http.MethodPost, "/api/v1/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Demasiadas solicitudes")

	// The auth bucket is separate from the general one.
	assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "/api/v1/trash").Code)
}

func TestRateLimit_SkipsHealthChecks(t *testing.T) {
	h := NewRateLimitMiddleware(1, 1).Handler(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "/health").Code)
		assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "/metrics").Code)
	}

	assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "/api/v1/trash").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, http.MethodGet, "/api/v1/trash").Code)
}
