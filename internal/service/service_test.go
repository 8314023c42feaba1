package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"famefeed/internal/classifier"
	"famefeed/internal/featureflags"
	"famefeed/internal/models"
	"famefeed/internal/repository"
	"famefeed/internal/testutil"

	"github.com/stretchr/testify/require"
)

// testEnv is a seeded SQLite database with every service wired over it and
// a scripted classifier keyed by post content.
type testEnv struct {
	*testutil.Fixture
	store   *repository.Store
	svc     *Services
	results map[string]classifier.Result

	mu    sync.Mutex
	clock time.Time
}

func newEnv(t *testing.T) *testEnv {
	return newEnvWithConfig(t, DefaultConfig(), featureflags.NewManager(""))
}

func newEnvWithConfig(t *testing.T, cfg Config, flags *featureflags.Manager) *testEnv {
	t.Helper()
	f := testutil.NewFixture(t)
	e := &testEnv{
		Fixture: f,
		store:   repository.NewStore(f.DB),
		results: map[string]classifier.Result{},
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	cls := classifier.Func(func(_ context.Context, content string) (classifier.Result, error) {
		return e.results[content], nil
	})
	e.svc = New(e.store, cls, flags, cfg)
	e.svc.Posts.now = func() time.Time {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.clock = e.clock.Add(time.Minute)
		return e.clock
	}
	return e
}

// about builds a classification; an empty rating name means no rating.
func (e *testEnv) about(area, rating string) classifier.Classification {
	c := classifier.Classification{ExpertiseArea: e.Areas[area]}
	if rating != "" {
		r := e.Ratings[rating]
		c.TruthRating = &r
	}
	return c
}

// script makes the classifier return the given result for content.
func (e *testEnv) script(content string, falseClaim bool, cs ...classifier.Classification) {
	e.results[content] = classifier.Result{ContainsFalseClaim: falseClaim, Classifications: cs}
}

func (e *testEnv) submit(t *testing.T, authorID uint, content string) *SubmitPostResult {
	t.Helper()
	res, err := e.svc.Posts.SubmitPost(context.Background(), SubmitPostInput{AuthorID: authorID, Content: content})
	require.NoError(t, err)
	return res
}

func (e *testEnv) fame(t *testing.T, userID uint, area string) (int, bool) {
	t.Helper()
	snap, err := e.store.Fame.Snapshot(context.Background(), userID)
	require.NoError(t, err)
	v, ok := snap[e.Areas[area].ID]
	return v, ok
}

func (e *testEnv) member(t *testing.T, userID uint, area string) bool {
	t.Helper()
	ok, err := e.store.Graph.IsMember(context.Background(), userID, e.Areas[area].ID)
	require.NoError(t, err)
	return ok
}

func (e *testEnv) reload(t *testing.T, userID uint) models.User {
	t.Helper()
	u, err := e.store.Users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return *u
}

func (e *testEnv) publishedCount(t *testing.T, authorID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.DB.Model(&models.Post{}).Where("author_id = ? AND published = ?", authorID, true).Count(&n).Error)
	return n
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
