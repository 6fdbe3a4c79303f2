package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisTermLocker implements TermLocker with a plain SET NX key per term.
// The TTL bounds how long a crashed run can wedge a term.
type RedisTermLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisTermLocker creates a locker with the given lock TTL.
func NewRedisTermLocker(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisTermLocker {
	return &RedisTermLocker{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "term_locker").Logger(),
	}
}

func lockKey(termOrgUnitID int) string {
	return fmt.Sprintf("sync:term:%d", termOrgUnitID)
}

// Acquire takes the per-term lock. Returns false when another run holds it.
func (l *RedisTermLocker) Acquire(ctx context.Context, termOrgUnitID int) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey(termOrgUnitID), "1", l.ttl).Result()
}

// Release drops the lock. Best effort: an expired key is not an error.
func (l *RedisTermLocker) Release(ctx context.Context, termOrgUnitID int) {
	if err := l.rdb.Del(ctx, lockKey(termOrgUnitID)).Err(); err != nil {
		l.log.Warn().Err(err).Int("org_unit_id", termOrgUnitID).Msg("failed to release sync lock")
	}
}
