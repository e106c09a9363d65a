package gateway

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey resolves the throttling key for a request: first X-Forwarded-For
// entry, then X-Real-IP, then the RemoteAddr host. "unknown" is the sentinel
// when nothing usable is present, so such requests still share one counter.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
