package ratelimit

import "time"

// Category names for every throttled operation in the system. The policy
// table in config maps these to (max calls, window) pairs.
const (
	CategoryFirewall = "firewall"
	CategoryAdmin    = "admin"
	CategoryPayment  = "payment"
	CategoryCoupon   = "coupon"
	CategoryPricing  = "pricing"
	CategoryRole     = "role"
)

type Policy struct {
	MaxCalls int           // accepted calls per window
	Window   time.Duration // fixed window length
}

type Decision struct {
	Allowed   bool
	Remaining int       // calls left in the current window (0 when denied)
	ResetAt   time.Time // when the current window expires
}

// Limiter decides whether a call identified by (key, category) is permitted
// under the category's fixed-window policy. It never logs or blocks; callers
// translate a denial into their own failure mode.
type Limiter interface {
	Check(key, category string) Decision
	Close() error
}
