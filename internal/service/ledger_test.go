package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"famefeed/internal/featureflags"
	"famefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustFame_FirstOffenseCreatesConfuser(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")

	adj, logout, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
	require.NoError(t, err)

	assert.False(t, logout)
	assert.Equal(t, AdjustCreated, adj.Kind)
	assert.Equal(t, "Confuser", adj.Level.Name)
	v, ok := e.fame(t, u.ID, "science")
	require.True(t, ok)
	assert.Equal(t, -10, v)
}

func TestAdjustFame_NonNegativeRatingIsNoop(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")

	adj, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["Correct"].ID)
	require.NoError(t, err)
	assert.Equal(t, AdjustNone, adj.Kind)
	_, ok := e.fame(t, u.ID, "science")
	assert.False(t, ok)
}

func TestAdjustFame_DemotionIsMonotoneUntilBan(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	e.Post(t, u.ID, "old news", e.clock, true)
	ctx := context.Background()

	values := []int{}
	for i := 0; i < 3; i++ {
		adj, logout, err := e.svc.Ledger.AdjustFame(ctx, u.ID, e.Areas["politics"].ID, e.Ratings["Misleading"].ID)
		require.NoError(t, err)
		require.False(t, logout)
		values = append(values, adj.Level.NumericValue)
	}
	assert.Equal(t, []int{-10, -50, -100}, values)
	assert.True(t, e.reload(t, u.ID).IsActive)

	adj, logout, err := e.svc.Ledger.AdjustFame(ctx, u.ID, e.Areas["politics"].ID, e.Ratings["Misleading"].ID)
	require.NoError(t, err)
	assert.True(t, logout)
	assert.Equal(t, AdjustBanned, adj.Kind)
	assert.False(t, e.reload(t, u.ID).IsActive)
	assert.Zero(t, e.publishedCount(t, u.ID))

	v, _ := e.fame(t, u.ID, "politics")
	assert.Equal(t, -100, v, "a ban leaves the entry at the floor")
}

func TestAdjustFame_EvictsBelowSuperPro(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	e.SetFame(t, u.ID, "science", "Super Pro")
	e.Join(t, u.ID, "science")
	e.Join(t, u.ID, "politics")

	adj, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
	require.NoError(t, err)

	assert.Equal(t, AdjustDemoted, adj.Kind)
	assert.Equal(t, "Pro", adj.Level.Name)
	assert.True(t, adj.Evicted)
	assert.False(t, e.member(t, u.ID, "science"))
	assert.True(t, e.member(t, u.ID, "politics"), "other communities are untouched")
}

func TestAdjustFame_FirstOffenseEvicts(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	e.Join(t, u.ID, "health")

	adj, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["health"].ID, e.Ratings["Bullshit"].ID)
	require.NoError(t, err)
	assert.Equal(t, AdjustCreated, adj.Kind)
	assert.True(t, adj.Evicted)
	assert.False(t, e.member(t, u.ID, "health"))
}

func TestAdjustFame_NonMemberIsNotEvicted(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	e.SetFame(t, u.ID, "science", "Pro")

	adj, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
	require.NoError(t, err)
	assert.Equal(t, "Amateur", adj.Level.Name)
	assert.False(t, adj.Evicted)
}

func TestAdjustFame_MissingLevelIsConfigurationError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.ConfuserLevel = "Clown"
	e := newEnvWithConfig(t, cfg, featureflags.NewManager(""))
	u := e.User(t, "u@example.com")

	_, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeConfiguration))
	_, ok := e.fame(t, u.ID, "science")
	assert.False(t, ok)
}

func TestAdjustFame_MissingSuperProRollsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.SuperProLevel = "Legend"
	e := newEnvWithConfig(t, cfg, featureflags.NewManager(""))
	u := e.User(t, "u@example.com")
	e.SetFame(t, u.ID, "science", "Pro")

	_, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
	assert.True(t, models.HasCode(err, models.CodeConfiguration))

	v, _ := e.fame(t, u.ID, "science")
	assert.Equal(t, 50, v, "demotion must roll back with the failed rule")
}

func TestAdjustFame_NotFound(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	ctx := context.Background()

	tests := []struct {
		name                string
		user, topic, rating uint
	}{
		{"user", 999, e.Areas["science"].ID, e.Ratings["False"].ID},
		{"topic", u.ID, 999, e.Ratings["False"].ID},
		{"rating", u.ID, e.Areas["science"].ID, 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.svc.Ledger.AdjustFame(ctx, tt.user, tt.topic, tt.rating)
			assert.True(t, models.HasCode(err, models.CodeNotFound), "got %v", err)
		})
	}
}

func TestBanUser_UnpublishesEverything(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	other := e.User(t, "other@example.com")
	e.Post(t, u.ID, "one", e.clock, true)
	e.Post(t, u.ID, "two", e.clock.Add(time.Minute), true)
	e.Post(t, other.ID, "three", e.clock, true)

	require.NoError(t, e.svc.Ledger.BanUser(context.Background(), u.ID))
	assert.False(t, e.reload(t, u.ID).IsActive)
	assert.Zero(t, e.publishedCount(t, u.ID))
	assert.Equal(t, int64(1), e.publishedCount(t, other.ID))

	require.NoError(t, e.svc.Ledger.BanUser(context.Background(), u.ID), "ban is idempotent")
	assert.True(t, models.HasCode(e.svc.Ledger.BanUser(context.Background(), 999), models.CodeNotFound))
}

func TestFameOf(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")
	e.SetFame(t, u.ID, "technology", "Pro")
	e.SetFame(t, u.ID, "economics", "Confuser")
	ctx := context.Background()

	profile, err := e.svc.Ledger.FameOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.User.ID)
	require.Len(t, profile.Fame, 2)
	assert.Equal(t, "economics", profile.Fame[0].ExpertiseArea.Label)
	assert.Equal(t, "technology", profile.Fame[1].ExpertiseArea.Label)

	// a ledger change invalidates the cached profile
	_, _, err = e.svc.Ledger.AdjustFame(ctx, u.ID, e.Areas["economics"].ID, e.Ratings["False"].ID)
	require.NoError(t, err)
	profile, err = e.svc.Ledger.FameOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bullshitter", profile.Fame[0].FameLevel.Name)

	_, err = e.svc.Ledger.FameOf(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestAdjustFame_ConcurrentSameUser(t *testing.T) {
	e := newEnv(t)
	u := e.User(t, "u@example.com")

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.svc.Ledger.AdjustFame(context.Background(), u.ID, e.Areas["science"].ID, e.Ratings["False"].ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	v, _ := e.fame(t, u.ID, "science")
	assert.Equal(t, -100, v, "three serialized adjustments reach the floor")
	assert.True(t, e.reload(t, u.ID).IsActive)
}
