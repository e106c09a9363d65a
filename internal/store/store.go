// Package store is the boundary to the agency's persisted business data.
// The security core treats it as an external collaborator: thin reads and
// writes, no business logic beyond key layout.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

type Coupon struct {
	Code       string
	PercentOff int
	Active     bool
}

type Store interface {
	Coupon(ctx context.Context, code string) (Coupon, error)
	PutCoupon(ctx context.Context, c Coupon) error
	SetPrice(ctx context.Context, service string, amountCents int64) error
	CompletePayment(ctx context.Context, orderID, userID string) error
}
