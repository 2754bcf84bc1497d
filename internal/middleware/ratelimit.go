package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-resell-backoffice/internal/model"
)

const (
	limiterIdleAfter  = 10 * time.Minute
	limiterSweepAbove = 1000
)

type bucket int

const (
	bucketNone bucket = iota
	bucketGeneral
	bucketAuth
)

// bucketFor decides which limit a path counts against. Health checks and the event
// stream are never limited.
func bucketFor(path string) bucket {
	path = strings.ToLower(path)
	switch {
	case path == "/health", path == "/metrics", strings.HasPrefix(path, "/api/v1/events"):
		return bucketNone
	case strings.HasPrefix(path, "/api/v1/auth"):
		return bucketAuth
	default:
		return bucketGeneral
	}
}

type visitor struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

func (v *visitor) limiter(b bucket) *rate.Limiter {
	if b == bucketAuth {
		return v.auth
	}
	return v.general
}

type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimitMiddleware limits requests per client IP. A generalRPM of zero
// or less disables the general limit; authRPM defaults to 10.
func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = 10
	}
	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		visitors:   make(map[string]*visitor),
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := bucketFor(r.URL.Path)
		if b == bucketNone || m.visit(ClientIP(r)).limiter(b).Allow() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", "60")
		writeFailure(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", &model.Notification{
			Title:       "Demasiadas solicitudes",
			Description: "Espera un momento antes de volver a intentarlo.",
			Variant:     model.VariantDestructive,
		})
	})
}

func (m *RateLimitMiddleware) visit(ip string) *visitor {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.visitors[ip]
	if !ok {
		v = &visitor{
			general: perMinute(m.generalRPM),
			auth:    perMinute(m.authRPM),
		}
		m.visitors[ip] = v
	}
	v.lastSeen = now

	if len(m.visitors) >= limiterSweepAbove {
		for key, other := range m.visitors {
			if now.Sub(other.lastSeen) > limiterIdleAfter {
				delete(m.visitors, key)
			}
		}
	}
	return v
}

func perMinute(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}
