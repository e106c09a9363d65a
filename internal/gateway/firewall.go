package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aryavratstudios/edgeguard/internal/ratelimit"
)

const firewallMessage = "Too many requests. Please slow down and try again shortly.\n"

// Firewall throttles every inbound request by client IP under the "firewall"
// category. Denied requests are answered with a plain-text 429 and never reach
// a route handler. Ops endpoints go on the skip list.
func Firewall(
	lim ratelimit.Limiter,
	skip map[string]struct{},
	onLimited func(key string),
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			dec := lim.Check(key, ratelimit.CategoryFirewall)

			w.Header().Set("X-RateLimit-Remaining", itoa(max(dec.Remaining, 0)))

			if !dec.Allowed {
				if onLimited != nil {
					onLimited(key)
				}
				retry := int(time.Until(dec.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", itoa(max(retry, 1)))
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(firewallMessage))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func itoa(i int) string {
	var buf [32]byte
	return string(strconv.AppendInt(buf[:0], int64(i), 10))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
