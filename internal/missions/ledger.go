package missions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger remembers which missions were already dispatched on a given day so
// repeated dispatcher passes do not act twice.
type Ledger interface {
	// MarkDispatched records the mission for day and reports whether this
	// call was the first to do so.
	MarkDispatched(ctx context.Context, m Mission, day time.Time) (bool, error)
	// Release drops the marker so a later pass on the same day can retry.
	Release(ctx context.Context, m Mission, day time.Time) error
}

const defaultLedgerTTL = 48 * time.Hour

func ledgerKey(m Mission, day time.Time) string {
	return fmt.Sprintf("leadpilot:missions:%s:%s:%s", day.UTC().Format(time.DateOnly), m.Type, m.LeadID)
}

// RedisLedger stores dispatch markers as expiring Redis keys.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger returns a ledger over client. A non-positive ttl uses 48h.
func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	if client == nil {
		panic("missions: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) MarkDispatched(ctx context.Context, m Mission, day time.Time) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKey(m, day), m.Text, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("missions: ledger setnx: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, m Mission, day time.Time) error {
	if err := l.client.Del(ctx, ledgerKey(m, day)).Err(); err != nil {
		return fmt.Errorf("missions: ledger del: %w", err)
	}
	return nil
}

// MemoryLedger is a process-local Ledger for development and tests.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]struct{})}
}

func (l *MemoryLedger) MarkDispatched(_ context.Context, m Mission, day time.Time) (bool, error) {
	key := ledgerKey(m, day)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, m Mission, day time.Time) error {
	l.mu.Lock()
	delete(l.seen, ledgerKey(m, day))
	l.mu.Unlock()
	return nil
}
