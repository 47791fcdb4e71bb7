package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingClearsExpiredResetCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}

	_, err := users.Register(ctx, "stale@example.com", "password123", "stale", "")
	require.NoError(t, err)
	_, err = users.Register(ctx, "fresh@example.com", "password123", "fresh", "")
	require.NoError(t, err)

	require.NoError(t, st.Users().SetResetOTP(ctx, "stale@example.com", domain.ResetOTP{
		Code:      "111111",
		ExpiresAt: time.Now().Add(-time.Minute).UnixMilli(),
	}))
	require.NoError(t, st.Users().SetResetOTP(ctx, "fresh@example.com", domain.ResetOTP{
		Code:      "222222",
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	}))

	svc := NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)

	cleared, err := svc.clearExpiredResetCodes(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, cleared)

	stale, err := st.Users().GetUserByEmail(ctx, "stale@example.com")
	require.NoError(t, err)
	require.Nil(t, stale.ResetOTP)

	fresh, err := st.Users().GetUserByEmail(ctx, "fresh@example.com")
	require.NoError(t, err)
	require.NotNil(t, fresh.ResetOTP)
}

func TestHousekeepingPruneWithHealthyIndexes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	history := &HistoryService{Store: st}

	_, err := history.Save(ctx, "alice@example.com", domain.Conversation{Title: "alive"})
	require.NoError(t, err)

	svc := NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)

	pruned, err := svc.pruneDanglingIndexEntries(ctx)
	require.NoError(t, err)
	require.Zero(t, pruned)

	summaries, err := history.List(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestHousekeepingLifecycle(t *testing.T) {
	st := newTestStore(t)

	svc := NewHousekeepingService(st, slog.New(slog.DiscardHandler), 10*time.Millisecond)
	svc.Start()

	// Let at least one ticker pass fire before shutting down.
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
}
