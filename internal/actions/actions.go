// Package actions holds the mutating server-side operations. Every method
// follows the same discipline before touching data: resolve the caller's
// throttling key, consult the rate limiter, and for admin-only operations
// check authorization strictly first so anonymous callers cannot drain an
// administrator's quota.
package actions

import (
	"context"
	"strings"
	"time"

	"github.com/aryavratstudios/edgeguard/internal/access"
	"github.com/aryavratstudios/edgeguard/internal/audit"
	"github.com/aryavratstudios/edgeguard/internal/identity"
	"github.com/aryavratstudios/edgeguard/internal/profile"
	"github.com/aryavratstudios/edgeguard/internal/ratelimit"
	"github.com/aryavratstudios/edgeguard/internal/store"
)

type Actions struct {
	limiter  ratelimit.Limiter
	gate     *access.Gate
	profiles profile.Store
	data     store.Store
	audit    audit.Recorder
}

func New(
	limiter ratelimit.Limiter,
	gate *access.Gate,
	profiles profile.Store,
	data store.Store,
	recorder audit.Recorder,
) *Actions {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Actions{
		limiter:  limiter,
		gate:     gate,
		profiles: profiles,
		data:     data,
		audit:    recorder,
	}
}

// ValidateCoupon checks a coupon code for an unauthenticated caller. The
// throttling key is the code itself, so guessing attempts against one code
// burn that code's window no matter how many clients participate.
func (a *Actions) ValidateCoupon(ctx context.Context, code string) (store.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return store.Coupon{}, &ValidationError{Field: "code", Reason: "required"}
	}

	if dec := a.limiter.Check(code, ratelimit.CategoryCoupon); !dec.Allowed {
		return store.Coupon{}, rateLimited(ratelimit.CategoryCoupon,
			"too many validation attempts for this code, please try again later")
	}

	c, err := a.data.Coupon(ctx, code)
	if err != nil {
		return store.Coupon{}, err
	}
	if !c.Active {
		// inactive reads the same as unknown; do not leak retired codes
		return store.Coupon{}, store.ErrNotFound
	}
	return c, nil
}

// CompletePayment marks an order paid by the current caller. Keyed by user
// id: one client hammering payments does not affect anyone else.
func (a *Actions) CompletePayment(ctx context.Context, orderID string) error {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return access.Unauthorized("payment requires a signed-in caller", nil)
	}
	if strings.TrimSpace(orderID) == "" {
		return &ValidationError{Field: "order_id", Reason: "required"}
	}

	if dec := a.limiter.Check(id.ID, ratelimit.CategoryPayment); !dec.Allowed {
		return rateLimited(ratelimit.CategoryPayment,
			"too many payment attempts, please wait before retrying")
	}

	if err := a.data.CompletePayment(ctx, orderID, id.ID); err != nil {
		return err
	}

	a.record(ctx, id.ID, "payment.complete", orderID)
	return nil
}

type CouponInput struct {
	Code       string
	PercentOff int
	Active     bool
}

func (in *CouponInput) validate() error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return &ValidationError{Field: "code", Reason: "required"}
	}
	if in.PercentOff < 1 || in.PercentOff > 100 {
		return &ValidationError{Field: "percent_off", Reason: "must be between 1 and 100"}
	}
	return nil
}

// CreateCoupon is admin-only. Authorization runs before the rate-limit check.
func (a *Actions) CreateCoupon(ctx context.Context, in CouponInput) error {
	admin, err := a.gate.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	if dec := a.limiter.Check(admin.ID, ratelimit.CategoryAdmin); !dec.Allowed {
		return rateLimited(ratelimit.CategoryAdmin,
			"too many admin actions, please wait before retrying")
	}

	if err := in.validate(); err != nil {
		return err
	}

	if err := a.data.PutCoupon(ctx, store.Coupon(in)); err != nil {
		return err
	}

	a.record(ctx, admin.ID, "coupon.create", in.Code)
	return nil
}

type PricingInput struct {
	Service     string
	AmountCents int64
}

func (in *PricingInput) validate() error {
	in.Service = strings.TrimSpace(in.Service)
	if in.Service == "" {
		return &ValidationError{Field: "service", Reason: "required"}
	}
	if in.AmountCents <= 0 {
		return &ValidationError{Field: "amount_cents", Reason: "must be positive"}
	}
	return nil
}

// UpdatePricing is admin-only.
func (a *Actions) UpdatePricing(ctx context.Context, in PricingInput) error {
	admin, err := a.gate.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	if dec := a.limiter.Check(admin.ID, ratelimit.CategoryPricing); !dec.Allowed {
		return rateLimited(ratelimit.CategoryPricing,
			"too many pricing updates, please wait before retrying")
	}

	if err := in.validate(); err != nil {
		return err
	}

	if err := a.data.SetPrice(ctx, in.Service, in.AmountCents); err != nil {
		return err
	}

	a.record(ctx, admin.ID, "pricing.update", in.Service)
	return nil
}

type RoleInput struct {
	UserID string
	Role   string
}

func (in *RoleInput) validate() error {
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if !profile.ValidRole(in.Role) {
		return &ValidationError{Field: "role", Reason: "unknown role " + in.Role}
	}
	return nil
}

// ChangeRole is admin-only. Note that granting role=admin does not by itself
// grant admin access; the target email must also be on the allow-list.
func (a *Actions) ChangeRole(ctx context.Context, in RoleInput) error {
	admin, err := a.gate.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	if dec := a.limiter.Check(admin.ID, ratelimit.CategoryRole); !dec.Allowed {
		return rateLimited(ratelimit.CategoryRole,
			"too many role changes, please wait before retrying")
	}

	if err := in.validate(); err != nil {
		return err
	}

	if err := a.profiles.SetRole(ctx, in.UserID, in.Role); err != nil {
		return err
	}

	a.record(ctx, admin.ID, "role.change", in.UserID+"="+in.Role)
	return nil
}

// record writes the audit entry for a completed action. Best-effort: audit
// failures never undo or fail the action.
func (a *Actions) record(ctx context.Context, actor, action, detail string) {
	_ = a.audit.Record(ctx, audit.Event{
		Actor:  actor,
		Action: action,
		Detail: detail,
		At:     time.Now(),
	})
}
