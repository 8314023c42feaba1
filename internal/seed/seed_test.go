package seed

import (
	"context"
	"testing"

	"famefeed/internal/classifier"
	"famefeed/internal/featureflags"
	"famefeed/internal/models"
	"famefeed/internal/repository"
	"famefeed/internal/service"
	"famefeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeder(t *testing.T, opts Options) (*Seeder, *testutil.Fixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	store := repository.NewStore(f.DB)
	cls, err := classifier.NewKeywordClassifier(context.Background(), f.Catalog, store.Catalog)
	require.NoError(t, err)
	svc := service.New(store, cls, featureflags.NewManager(""), service.DefaultConfig())
	return NewSeeder(f.DB, svc, f.Catalog, opts), f
}

func count(t *testing.T, f *testutil.Fixture, model any) int {
	t.Helper()
	var n int64
	require.NoError(t, f.DB.Model(model).Count(&n).Error)
	return int(n)
}

func TestRun_CreatesCommunity(t *testing.T) {
	s, f := newSeeder(t, Options{
		NumUsers:       8,
		NumPosts:       30,
		FollowsPerUser: 3,
		JoinRate:       0.5,
		FalseClaimRate: 0.3,
		Seed:           42,
	})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, sum.Users)
	assert.Equal(t, 8, count(t, f, &models.User{}))
	assert.Equal(t, sum.Follows, count(t, f, &models.Follow{}))
	assert.Equal(t, sum.Posts, count(t, f, &models.Post{}))
	assert.LessOrEqual(t, sum.Published, sum.Posts)

	var selfFollows int64
	require.NoError(t, f.DB.Model(&models.Follow{}).Where("follower_id = followee_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	var inactive int64
	require.NoError(t, f.DB.Model(&models.User{}).Where("is_active = ?", false).Count(&inactive).Error)
	assert.Equal(t, int64(sum.Banned), inactive)
}

func TestRun_FalseClaimsAlwaysSuppressed(t *testing.T) {
	s, f := newSeeder(t, Options{NumUsers: 3, NumPosts: 5, FalseClaimRate: 1, Seed: 7})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Published)
	assert.Equal(t, sum.Posts, count(t, f, &models.Post{}))
	assert.Zero(t, countPublished(t, f))
}

func countPublished(t *testing.T, f *testutil.Fixture) int {
	t.Helper()
	var n int64
	require.NoError(t, f.DB.Model(&models.Post{}).Where("published = ?", true).Count(&n).Error)
	return int(n)
}

func TestClearAll_KeepsCatalog(t *testing.T) {
	s, f := newSeeder(t, Options{NumUsers: 4, NumPosts: 6, FollowsPerUser: 2, JoinRate: 1, Seed: 3})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())
	assert.Zero(t, count(t, f, &models.User{}))
	assert.Zero(t, count(t, f, &models.Post{}))
	assert.Zero(t, count(t, f, &models.CommunityMembership{}))
	assert.Equal(t, len(f.Catalog.FameLevels), count(t, f, &models.FameLevel{}))
}

func TestPostContent_ClassifiesToCatalogArea(t *testing.T) {
	f := testutil.NewFixture(t)
	factory := NewFactory(f.DB, f.Catalog, 11)
	store := repository.NewStore(f.DB)
	cls, err := classifier.NewKeywordClassifier(context.Background(), f.Catalog, store.Catalog)
	require.NoError(t, err)

	for range 10 {
		content := factory.PostContent(true)
		assert.LessOrEqual(t, len([]rune(content)), models.MaxPostLength)

		res, err := cls.Classify(context.Background(), content)
		require.NoError(t, err)
		require.NotEmpty(t, res.Classifications, content)
		assert.True(t, res.ContainsFalseClaim, content)
	}
}
