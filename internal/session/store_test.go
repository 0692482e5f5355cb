package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/intent"
)

func newTestStore(t *testing.T, sess config.SessionConfig) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStoreWithClient(client, sess, logger.NewTestLogger(t)), mr
}

func TestAppendAndHistory(t *testing.T) {
	store, _ := newTestStore(t, config.SessionConfig{TTL: 60, MaxTurns: 10})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s-1", intent.HistoryTurn{
		UserInput: "show unpaid invoices",
		Intent:    "INVOICE_QUERY",
		Response:  "Found 2 invoice(s)",
	}))
	require.NoError(t, store.Append(ctx, "s-1", intent.HistoryTurn{
		UserInput: "what is my balance",
		Intent:    "BALANCE_CHECK",
	}))

	history, err := store.History(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "INVOICE_QUERY", history[0].Intent)
	assert.Equal(t, "BALANCE_CHECK", history[1].Intent)
}

func TestHistory_MissingSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t, config.SessionConfig{TTL: 60, MaxTurns: 10})

	history, err := store.History(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppend_TrimsToMaxTurns(t *testing.T) {
	store, _ := newTestStore(t, config.SessionConfig{TTL: 60, MaxTurns: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "s-1", intent.HistoryTurn{
			UserInput: fmt.Sprintf("turn %d", i),
			Intent:    "GENERAL_QUERY",
		}))
	}

	history, err := store.History(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "turn 2", history[0].UserInput)
	assert.Equal(t, "turn 4", history[2].UserInput)
}

func TestAppend_RefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t, config.SessionConfig{TTL: 60, MaxTurns: 10})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s-1", intent.HistoryTurn{Intent: "GREETING"}))

	mr.FastForward(61 * time.Second)

	history, err := store.History(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, history, "session should expire after the TTL")
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t, config.SessionConfig{TTL: 60, MaxTurns: 10})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s-1", intent.HistoryTurn{Intent: "GREETING"}))
	require.NoError(t, store.Clear(ctx, "s-1"))

	history, err := store.History(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistory_SkipsCorruptTurns(t *testing.T) {
	store, mr := newTestStore(t, config.SessionConfig{TTL: 60, MaxTurns: 10})
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s-1", intent.HistoryTurn{Intent: "GREETING"}))
	mr.Lpush("session:history:s-1", "{not json")

	history, err := store.History(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "GREETING", history[0].Intent)
}
