package gateway

import "net/http"

// hardeningHeaders is the fixed header set stamped on every response,
// allowed or denied. Static and stateless; not configurable per route.
var hardeningHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     "camera=(), microphone=(), geolocation=()",
	"X-XSS-Protection":       "1; mode=block",
}

func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range hardeningHeaders {
				h.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
