package service

import (
	"context"
	"testing"
	"time"

	"famefeed/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_PublishesCommittedAdjustments(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "loud@example.com")
	e.SetFame(t, u.ID, "science", "Dangerous Bullshitter")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	n := notifications.NewNotifier(rdb)
	e.svc.Ledger.SetNotifier(n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan notifications.Event, 8)
	require.NoError(t, n.StartSubscriber(ctx, func(_ string, ev notifications.Event) { events <- ev }))

	_, _, err := e.svc.Ledger.AdjustFame(ctx, u.ID, e.Areas["politics"].ID, e.Ratings["False"].ID)
	require.NoError(t, err)
	created := nextEvent(t, events)
	assert.Equal(t, "created", created.Type)
	assert.Equal(t, e.Areas["politics"].ID, created.ExpertiseAreaID)
	assert.Equal(t, "Confuser", created.FameLevel)

	_, logout, err := e.svc.Ledger.AdjustFame(ctx, u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
	require.NoError(t, err)
	require.True(t, logout)
	for range 2 {
		assert.Equal(t, "banned", nextEvent(t, events).Type)
	}
}

func TestLedger_FailedAdjustmentPublishesNothing(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "quiet@example.com")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	n := notifications.NewNotifier(rdb)
	e.svc.Ledger.SetNotifier(n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan notifications.Event, 1)
	require.NoError(t, n.StartSubscriber(ctx, func(_ string, ev notifications.Event) { events <- ev }))

	_, _, err := e.svc.Ledger.AdjustFame(ctx, u.ID, 9999, e.Ratings["False"].ID)
	require.Error(t, err)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func nextEvent(t *testing.T, ch <-chan notifications.Event) notifications.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ledger event")
		return notifications.Event{}
	}
}
