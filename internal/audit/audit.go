// Package audit records successfully completed privileged and mutating
// actions. Recording is best-effort: a failure to record never fails the
// action that completed.
package audit

import (
	"context"
	"time"
)

type Event struct {
	Actor  string // user id of the caller, or a proxy key for anonymous flows
	Action string // e.g. "coupon.create", "payment.complete"
	Detail string
	At     time.Time
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Nop discards every event. Used when auditing is disabled in config.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }
