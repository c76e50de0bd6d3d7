package middleware

import (
	"net/http"
	"strings"
)

const corsMaxAge = "3600"

// originMatcher holds the configured origins. Entries may be exact origins,
// "*" for any origin, or a single leading-label wildcard such as
// "https://*.example.org".
type originMatcher struct {
	any      bool
	exact    map[string]bool
	suffixes []string // "https://" + ".example.org" split around the star
	prefixes []string
}

func newOriginMatcher(origins []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "*")
			m.prefixes = append(m.prefixes, scheme)
			m.suffixes = append(m.suffixes, host)
		case o != "":
			m.exact[o] = true
		}
	}
	return m
}

func (m *originMatcher) allowed(origin string) bool {
	if m.any || m.exact[origin] {
		return true
	}
	for i, p := range m.prefixes {
		if strings.HasPrefix(origin, p) && strings.HasSuffix(origin, m.suffixes[i]) &&
			len(origin) > len(p)+len(m.suffixes[i]) {
			return true
		}
	}
	return false
}

// CORS sets the allow headers for permitted origins and answers preflight
// requests. Credentials are only allowed for explicitly listed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	m := newOriginMatcher(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin == "" || !m.allowed(origin) {
				if isPreflight(r) {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", "X-Request-Id")
			if !m.any {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if isPreflight(r) {
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-Id")
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}
