package audit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder keeps per-action counters: a cumulative total, a TTL-bounded
// minute series, and a TTL-bounded per-actor hash. Cardinality is bounded by
// the action vocabulary plus active actors.
type RedisRecorder struct {
	rdb    *redis.Client
	prefix string
	// ttl applies to the minute series and per-actor keys; the cumulative
	// total never expires.
	ttl time.Duration
}

type RedisOption func(*RedisRecorder)

func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRecorder) { r.prefix = strings.Trim(prefix, ":") }
}

func WithTTL(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

func NewRedisRecorder(rdb *redis.Client, opts ...RedisOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "edgeguard:audit",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRecorder) Record(ctx context.Context, ev Event) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.prefix+":total", ev.Action, 1)

	bucketKey := r.prefix + ":minute:" + at.UTC().Format("200601021504")
	pipe.HIncrBy(ctx, bucketKey, ev.Action, 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, bucketKey, r.ttl)
	}

	if actor := strings.TrimSpace(ev.Actor); actor != "" {
		actorKey := r.prefix + ":actor:" + actor
		pipe.HIncrBy(ctx, actorKey, ev.Action, 1)
		if r.ttl > 0 {
			pipe.Expire(ctx, actorKey, r.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
