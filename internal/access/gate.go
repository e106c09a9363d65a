// Package access gates entry to administrative capability. Admin access
// requires BOTH membership in the static allow-list AND a stored role of
// "admin"; neither alone is sufficient. The allow-list is a code-deployed
// trust anchor that a compromised profile row cannot override, and the role
// column can revoke capability without a redeploy.
package access

import (
	"context"
	"errors"
	"strings"

	"github.com/aryavratstudios/edgeguard/internal/identity"
	"github.com/aryavratstudios/edgeguard/internal/profile"
)

type Kind int

const (
	// KindUnauthorized: no usable identity (not logged in, or account
	// incomplete). Recoverable by authenticating.
	KindUnauthorized Kind = iota + 1
	// KindForbidden: identity present but entitlement insufficient.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Error is a deny decision. Detail carries the offending email or role for
// server-side logs and audit; it is never rendered to end users.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

func IsUnauthorized(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindUnauthorized
}

func IsForbidden(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindForbidden
}

// Unauthorized and Forbidden build deny decisions; action call sites use
// them for failures outside the gate itself (e.g. payment without a session).
func Unauthorized(detail string, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail, cause: cause}
}

func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

// RoleSource is the slice of the profile store the gate needs.
type RoleSource interface {
	Role(ctx context.Context, userID string) (string, error)
}

type Gate struct {
	allow map[string]struct{}
	roles RoleSource
}

// NewGate builds a gate from the configured allow-list. Emails are compared
// case-insensitively.
func NewGate(allowEmails []string, roles RoleSource) *Gate {
	allow := make(map[string]struct{}, len(allowEmails))
	for _, e := range allowEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allow[e] = struct{}{}
		}
	}
	return &Gate{allow: allow, roles: roles}
}

func (g *Gate) Allowlisted(email string) bool {
	_, ok := g.allow[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// RequireAdmin returns the caller identity if it may enter a privileged code
// path, or an *Error describing the denial. Evaluated fresh on every call;
// nothing is cached between requests.
//
// A failed role lookup denies: the gate never fails open when the profile
// store is unreachable. The cause is wrapped for server-side logs.
func (g *Gate) RequireAdmin(ctx context.Context) (identity.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return identity.Identity{}, Unauthorized("no session identity", nil)
	}

	if !g.Allowlisted(id.Email) {
		return identity.Identity{}, Forbidden("email not on admin allow-list: " + id.Email)
	}

	role, err := g.roles.Role(ctx, id.ID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return identity.Identity{}, Unauthorized("profile not found for user "+id.ID, err)
		}
		return identity.Identity{}, Unauthorized("role lookup failed for user "+id.ID, err)
	}

	if role != profile.RoleAdmin {
		return identity.Identity{}, Forbidden("role is " + role + ", admin required")
	}

	return id, nil
}

// IsAdmin is the non-raising variant for conditional branching. An empty
// userID means the caller from the request context. Same allow-list and role
// conjunction as RequireAdmin; any failure is simply false.
func (g *Gate) IsAdmin(ctx context.Context, userID string) bool {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return false
	}
	if !g.Allowlisted(id.Email) {
		return false
	}
	if userID == "" {
		userID = id.ID
	}
	role, err := g.roles.Role(ctx, userID)
	if err != nil {
		return false
	}
	return role == profile.RoleAdmin
}
