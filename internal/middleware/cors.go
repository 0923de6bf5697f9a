package middleware

import (
	"net/http"
	"strings"
)

// OriginMatcher reports whether a browser origin is allowed.
type OriginMatcher struct {
	allowAll bool
	set      map[string]struct{}
}

// NewOriginMatcher builds a matcher. An empty list or a "*" entry allows any origin.
func NewOriginMatcher(allowed []string) OriginMatcher {
	m := OriginMatcher{allowAll: true, set: make(map[string]struct{}, len(allowed))}
	listed := false
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return OriginMatcher{allowAll: true}
		}
		if origin != "" {
			m.set[origin] = struct{}{}
			listed = true
		}
	}
	m.allowAll = !listed
	return m
}

// AllowsAny is true when no allow-list is in effect.
func (m OriginMatcher) AllowsAny() bool {
	return m.allowAll
}

// Allowed reports whether origin may use the API.
func (m OriginMatcher) Allowed(origin string) bool {
	if m.allowAll {
		return true
	}
	_, ok := m.set[origin]
	return ok
}

// CORS allows every origin. Used when no allow-list is configured.
func CORS(next http.Handler) http.Handler {
	return NewCORS(nil)(next)
}

// NewCORS builds a CORS middleware. An empty list or a "*" entry allows any origin.
func NewCORS(allowed []string) func(http.Handler) http.Handler {
	origins := NewOriginMatcher(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if origins.AllowsAny() {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if origins.Allowed(origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
