package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore lays the agency data out as one hash per record:
// <prefix>:coupon:<CODE>, <prefix>:pricing, <prefix>:order:<id>.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: strings.Trim(prefix, ":")}
}

func (s *RedisStore) Coupon(ctx context.Context, code string) (Coupon, error) {
	fields, err := s.rdb.HGetAll(ctx, s.prefix+":coupon:"+code).Result()
	if err != nil {
		return Coupon{}, err
	}
	if len(fields) == 0 {
		return Coupon{}, ErrNotFound
	}

	percent, _ := strconv.Atoi(fields["percent_off"])
	active, _ := strconv.ParseBool(fields["active"])
	return Coupon{Code: code, PercentOff: percent, Active: active}, nil
}

func (s *RedisStore) PutCoupon(ctx context.Context, c Coupon) error {
	return s.rdb.HSet(ctx, s.prefix+":coupon:"+c.Code,
		"percent_off", strconv.Itoa(c.PercentOff),
		"active", strconv.FormatBool(c.Active),
	).Err()
}

func (s *RedisStore) SetPrice(ctx context.Context, service string, amountCents int64) error {
	return s.rdb.HSet(ctx, s.prefix+":pricing", service, strconv.FormatInt(amountCents, 10)).Err()
}

func (s *RedisStore) CompletePayment(ctx context.Context, orderID, userID string) error {
	return s.rdb.HSet(ctx, s.prefix+":order:"+orderID,
		"status", "completed",
		"paid_by", userID,
		"paid_at", time.Now().UTC().Format(time.RFC3339),
	).Err()
}
