package missions

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLedgerMarksOncePerDay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := NewRedisLedger(client, time.Hour)
	ctx := context.Background()

	m := Mission{Type: TypeClose, Text: "Try closing Ana", LeadID: "lead-1"}
	day := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	first, err := ledger.MarkDispatched(ctx, m, day)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.MarkDispatched(ctx, m, day.Add(6*time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	nextDay, err := ledger.MarkDispatched(ctx, m, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, nextDay)

	key := "leadpilot:missions:2026-04-10:close:lead-1"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	afterExpiry, err := ledger.MarkDispatched(ctx, m, day)
	require.NoError(t, err)
	assert.True(t, afterExpiry)
}

func TestRedisLedgerReleaseAllowsRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	ledger := NewRedisLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	ctx := context.Background()
	m := Mission{Type: TypeFollowup, Text: "Follow up with Ana", LeadID: "lead-1"}
	day := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	first, err := ledger.MarkDispatched(ctx, m, day)
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, ledger.Release(ctx, m, day))
	assert.False(t, mr.Exists("leadpilot:missions:2026-04-10:followup:lead-1"))

	retry, err := ledger.MarkDispatched(ctx, m, day.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestRedisLedgerError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := NewRedisLedger(client, 0)
	mr.Close()

	_, err := ledger.MarkDispatched(context.Background(), Mission{Type: TypeRevive, LeadID: "x"}, time.Now())
	assert.Error(t, err)
	assert.Error(t, ledger.Release(context.Background(), Mission{Type: TypeRevive, LeadID: "x"}, time.Now()))
}

func TestMemoryLedger(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	m := Mission{Type: TypeFollowup, LeadID: "a"}

	ok, err := ledger.MarkDispatched(ctx, m, day)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = ledger.MarkDispatched(ctx, m, day)
	assert.False(t, ok)

	ok, _ = ledger.MarkDispatched(ctx, Mission{Type: TypeClose, LeadID: "a"}, day)
	assert.True(t, ok)

	require.NoError(t, ledger.Release(ctx, m, day))
	ok, _ = ledger.MarkDispatched(ctx, m, day)
	assert.True(t, ok)
}
