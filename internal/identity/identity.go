package identity

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const keyIdentity ctxKey = 0

// Identity is the resolved caller: who is making this request.
type Identity struct {
	ID    string
	Email string
}

// Store is a static in-memory session store: token -> identity.
type Store struct {
	cookie  string
	byToken map[string]Identity
}

// NewStatic creates a session store from a fixed token table.
// cookie: cookie name to read the session token from (e.g. "session").
func NewStatic(cookie string, sessions map[string]Identity) *Store {
	c := cookie
	if c == "" {
		c = "session"
	}
	return &Store{cookie: c, byToken: sessions}
}

// WithIdentity injects the caller identity into context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

// FromContext extracts the caller identity from context (if present).
func FromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(keyIdentity)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// Resolve looks up the caller identity from the request session.
// Cookie first, X-Session-Token header as a fallback for API clients.
func (s *Store) Resolve(r *http.Request) (Identity, bool) {
	token := ""
	if c, err := r.Cookie(s.cookie); err == nil {
		token = strings.TrimSpace(c.Value)
	}
	if token == "" {
		token = strings.TrimSpace(r.Header.Get("X-Session-Token"))
	}
	if token == "" {
		return Identity{}, false
	}
	id, ok := s.byToken[token]
	return id, ok
}

// Middleware resolves the session on every request and stores the identity in
// context. Anonymous requests pass through; gating happens downstream.
func (s *Store) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := s.Resolve(r); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
