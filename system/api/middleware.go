package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nexuscore/nexus/internal/security"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// authenticate requires a valid, non-revoked bearer access token and
// stashes the authenticated user id on the request context. Every token
// failure returns the same 401 with WWW-Authenticate: Bearer — callers
// cannot distinguish a missing header from an expired token from a revoked
// one.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}
		claims, err := h.engine.Security.Service().VerifyToken(r.Context(), token)
		if err != nil || claims.TokenType != string(security.TokenAccess) {
			unauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize requires the authenticated user to hold the resource.action
// permission. On failure it returns 403 naming the missing permission so
// operators can see exactly which grant is absent.
func (h *Handler) authorize(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := r.Context().Value(userIDContextKey).(string)
			if !h.engine.Security.Service().HasPermission(userID, resource, action) {
				writeError(w, http.StatusForbidden, "missing permission: "+resource+"."+action)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
}

// cors applies the api.cors.{origins,methods,headers} policy: allowed
// origins are matched exactly (or "*" reflects any), and preflight OPTIONS
// requests are answered without reaching a handler.
func (h *Handler) cors() func(http.Handler) http.Handler {
	schema, err := h.engine.Config.Service().Schema()
	if err != nil {
		return func(next http.Handler) http.Handler { return next }
	}
	cfg := schema.API.CORS

	allowAny := len(cfg.Origins) == 0
	allowed := make(map[string]bool, len(cfg.Origins))
	for _, o := range cfg.Origins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = true
	}
	methods := strings.Join(orDefault(cfg.Methods, []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}), ", ")
	headers := strings.Join(orDefault(cfg.Headers, []string{"Authorization", "Content-Type"}), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAny || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	if len(values) == 1 && values[0] == "*" {
		return fallback
	}
	return values
}

// rateLimit builds a per-client-IP token bucket middleware, sized from
// api.rate_limit.requests_per_minute. Disabled entirely (pass-through) when
// api.rate_limit.enabled is false.
func (h *Handler) rateLimit() func(http.Handler) http.Handler {
	schema, err := h.engine.Config.Service().Schema()
	if err != nil || !schema.API.RateLimit.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	perMinute := schema.API.RateLimit.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	limit := rate.Limit(float64(perMinute) / 60.0)
	burst := perMinute

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters[key] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !limiterFor(host).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
