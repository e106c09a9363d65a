package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aryavratstudios/edgeguard/internal/access"
	"github.com/aryavratstudios/edgeguard/internal/identity"
	"github.com/aryavratstudios/edgeguard/internal/profile"
	"github.com/aryavratstudios/edgeguard/internal/ratelimit"
	"github.com/aryavratstudios/edgeguard/internal/ratelimit/memory"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestClientKey_Precedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	r.Header.Set("X-Real-IP", "9.9.9.9")
	if got := ClientKey(r); got != "1.2.3.4" {
		t.Fatalf("expected first forwarded-for ip, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := ClientKey(r); got != "9.9.9.9" {
		t.Fatalf("expected real-ip fallback, got %q", got)
	}

	r.Header.Del("X-Real-IP")
	if got := ClientKey(r); got != "10.0.0.9" {
		t.Fatalf("expected remote addr host, got %q", got)
	}

	r.RemoteAddr = ""
	if got := ClientKey(r); got != "unknown" {
		t.Fatalf("expected sentinel key, got %q", got)
	}
}

func TestFirewall_BlocksExcessTraffic(t *testing.T) {
	lim := memory.New(map[string]ratelimit.Policy{
		ratelimit.CategoryFirewall: {MaxCalls: 2, Window: time.Minute},
	})

	var limitedKey string
	h := Firewall(lim, nil, func(key string) { limitedKey = key })(okHandler())

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/orders", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "http://example/orders", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("expected plain-text denial, got %q", ct)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if limitedKey != "10.0.0.1" {
		t.Fatalf("expected onLimited with client key, got %q", limitedKey)
	}
}

func TestFirewall_DistinctClientsIndependent(t *testing.T) {
	lim := memory.New(map[string]ratelimit.Policy{
		ratelimit.CategoryFirewall: {MaxCalls: 1, Window: time.Minute},
	})
	h := Firewall(lim, nil, nil)(okHandler())

	r1 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r1.RemoteAddr = "10.0.0.1:1"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)

	r2 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r2.RemoteAddr = "10.0.0.2:1"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)

	if w1.Code != http.StatusOK || w2.Code != http.StatusOK {
		t.Fatalf("expected both clients allowed, got %d and %d", w1.Code, w2.Code)
	}
}

func TestFirewall_SkipsOpsEndpoints(t *testing.T) {
	lim := memory.New(map[string]ratelimit.Policy{
		ratelimit.CategoryFirewall: {MaxCalls: 1, Window: time.Minute},
	})
	skip := map[string]struct{}{"/health": {}}
	h := Firewall(lim, skip, nil)(okHandler())

	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/health", nil)
		r.RemoteAddr = "10.0.0.1:1"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected skip-listed path to bypass the firewall, got %d", w.Code)
		}
	}
}

func newTestGate(t *testing.T) *access.Gate {
	t.Helper()
	roles := profile.NewMemoryStore()
	if err := roles.SetRole(context.Background(), "u-admin", profile.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if err := roles.SetRole(context.Background(), "u-client", profile.RoleClient); err != nil {
		t.Fatal(err)
	}
	return access.NewGate([]string{"admin@example.com", "client@example.com"}, roles)
}

func adminRequest(path string, id *identity.Identity) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "http://example"+path, nil)
	if id != nil {
		r = r.WithContext(identity.WithIdentity(r.Context(), *id))
	}
	return r
}

func TestAdminGate_AnonymousRedirectsToLogin(t *testing.T) {
	h := AdminGate("/admin", newTestGate(t), "/login", "/dashboard", nil)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest("/admin/coupons", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected login redirect, got %q", loc)
	}
}

func TestAdminGate_NonAdminRedirectsHome(t *testing.T) {
	var denied error
	h := AdminGate("/admin", newTestGate(t), "/login", "/dashboard", func(err error) { denied = err })(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest("/admin", &identity.Identity{ID: "u-client", Email: "client@example.com"}))

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected soft-fail redirect home, got %q", loc)
	}
	if !access.IsForbidden(denied) {
		t.Fatalf("expected forbidden decision surfaced to onDenied, got %v", denied)
	}
}

func TestAdminGate_AdminPasses(t *testing.T) {
	h := AdminGate("/admin", newTestGate(t), "/login", "/dashboard", nil)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest("/admin/pricing", &identity.Identity{ID: "u-admin", Email: "admin@example.com"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected admin to pass the gate, got %d", w.Code)
	}
}

func TestAdminGate_IgnoresOtherRoutes(t *testing.T) {
	h := AdminGate("/admin", newTestGate(t), "/login", "/dashboard", nil)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest("/administrator-docs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected sibling path outside the prefix to pass, got %d", w.Code)
	}
}

func TestSecurityHeaders_StampedOnEveryResponse(t *testing.T) {
	lim := memory.New(map[string]ratelimit.Policy{
		ratelimit.CategoryFirewall: {MaxCalls: 1, Window: time.Minute},
	})
	h := Chain(okHandler(), SecurityHeaders(), Firewall(lim, nil, nil))

	// allowed response
	r1 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r1.RemoteAddr = "10.0.0.1:1"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)

	// denied response
	r2 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r2.RemoteAddr = "10.0.0.1:1"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)

	for _, w := range []*httptest.ResponseRecorder{w1, w2} {
		if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Fatalf("expected nosniff on status %d, got %q", w.Code, got)
		}
		if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Fatalf("expected frame deny on status %d, got %q", w.Code, got)
		}
		if got := w.Header().Get("Referrer-Policy"); got == "" {
			t.Fatalf("expected referrer policy on status %d", w.Code)
		}
	}
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request denied, got %d", w2.Code)
	}
}

func TestChain_FirstMiddlewareRunsOutermost(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("unexpected middleware order: %v", order)
	}
}
