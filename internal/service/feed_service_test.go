package service

import (
	"context"
	"testing"
	"time"

	"famefeed/internal/featureflags"
	"famefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func TestTimeline_Standard(t *testing.T) {
	e := newEnv(t)
	me := e.User(t, "me@example.com")
	friend := e.User(t, "friend@example.com")
	stranger := e.User(t, "stranger@example.com")
	e.Follow(t, me.ID, friend.ID)

	mine := e.Post(t, me.ID, "mine", at(1), true)
	mineHidden := e.Post(t, me.ID, "mine hidden", at(2), false)
	friends := e.Post(t, friend.ID, "friend", at(3), true)
	friendHidden := e.Post(t, friend.ID, "friend hidden", at(4), false)
	e.Post(t, stranger.ID, "stranger", at(5), true)
	ctx := context.Background()

	posts, err := e.svc.Feed.Timeline(ctx, TimelineQuery{UserID: me.ID, Mode: ModeStandard, Page: models.From(0), Published: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{friends.ID, mineHidden.ID, mine.ID}, postIDs(posts))

	posts, err = e.svc.Feed.Timeline(ctx, TimelineQuery{UserID: me.ID, Mode: ModeStandard, Page: models.From(0), Published: false})
	require.NoError(t, err)
	assert.Equal(t, []uint{friendHidden.ID, mineHidden.ID, mine.ID}, postIDs(posts))
}

func TestTimeline_InclusiveEndPagination(t *testing.T) {
	e := newEnv(t)
	me := e.User(t, "me@example.com")
	ids := make([]uint, 5) // newest first
	for i := 0; i < 5; i++ {
		p := e.Post(t, me.ID, "post", at(i), true)
		ids[4-i] = p.ID
	}
	ctx := context.Background()
	end := func(n int) *int { return &n }

	tests := []struct {
		name string
		page models.Page
		want []uint
	}{
		{"first three", models.Page{Start: 0, End: end(2)}, ids[0:3]},
		{"middle", models.Page{Start: 1, End: end(3)}, ids[1:4]},
		{"single item", models.Page{Start: 2, End: end(2)}, ids[2:3]},
		{"end past data", models.Page{Start: 3, End: end(10)}, ids[3:]},
		{"unbounded", models.Page{Start: 2}, ids[2:]},
		{"start past data", models.Page{Start: 7}, []uint{}},
		{"end before start", models.Page{Start: 3, End: end(1)}, []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := e.svc.Feed.Timeline(ctx, TimelineQuery{UserID: me.ID, Page: tt.page, Published: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(posts))
		})
	}

	_, err := e.svc.Feed.Timeline(ctx, TimelineQuery{UserID: me.ID, Page: models.Page{Start: -1}})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestTimeline_CommunityRequiresSameTopicMembership(t *testing.T) {
	e := newEnv(t)
	viewer := e.User(t, "viewer@example.com")
	scientist := e.User(t, "scientist@example.com")
	politician := e.User(t, "politician@example.com")
	e.Join(t, viewer.ID, "science")
	e.Join(t, viewer.ID, "politics")
	e.Join(t, scientist.ID, "science")
	e.Join(t, politician.ID, "politics")

	shared := e.Post(t, scientist.ID, "shared topic", at(1), true, "science")
	// viewer and author both have communities, but not the post's topic in common
	e.Post(t, politician.ID, "wrong topic for author", at(2), true, "science")
	both := e.Post(t, scientist.ID, "two topics", at(3), true, "science", "politics")
	e.Post(t, scientist.ID, "unpublished", at(4), false, "science")
	own := e.Post(t, viewer.ID, "own unpublished", at(5), false, "politics")
	e.Post(t, scientist.ID, "no topic", at(6), true)

	posts, err := e.svc.Feed.Timeline(context.Background(), TimelineQuery{UserID: viewer.ID, Mode: ModeCommunity, Page: models.From(0)})
	require.NoError(t, err)
	assert.Equal(t, []uint{own.ID, both.ID, shared.ID}, postIDs(posts))
}

func TestTimeline_CommunityWithoutMembershipIsEmpty(t *testing.T) {
	e := newEnv(t)
	viewer := e.User(t, "viewer@example.com")
	author := e.User(t, "author@example.com")
	e.Join(t, author.ID, "science")
	e.Post(t, author.ID, "science", at(1), true, "science")
	e.Post(t, viewer.ID, "own", at(2), true, "science")

	posts, err := e.svc.Feed.Timeline(context.Background(), TimelineQuery{UserID: viewer.ID, Mode: ModeCommunity, Page: models.From(0)})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTimeline_CommunityFlagOff(t *testing.T) {
	e := newEnvWithConfig(t, DefaultConfig(), featureflags.NewManager("community_feed=off"))
	viewer := e.User(t, "viewer@example.com")

	_, err := e.svc.Feed.Timeline(context.Background(), TimelineQuery{UserID: viewer.ID, Mode: ModeCommunity, Page: models.From(0)})
	assert.True(t, models.HasCode(err, models.CodeForbidden))
}

func TestParseTimelineMode(t *testing.T) {
	m, err := ParseTimelineMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeStandard, m)

	m, err = ParseTimelineMode(" Community ")
	require.NoError(t, err)
	assert.Equal(t, ModeCommunity, m)

	_, err = ParseTimelineMode("global")
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	ada := e.UserJoined(t, "ada@lovelace.org", t0)
	require.NoError(t, e.DB.Model(&ada).Updates(map[string]any{"first_name": "Ada", "last_name": "Lovelace"}).Error)
	bob := e.User(t, "bob@example.com")

	byContent := e.Post(t, bob.ID, "Notes on the Analytical Engine", at(1), true)
	byName := e.Post(t, ada.ID, "hello world", at(2), true)
	hidden := e.Post(t, ada.ID, "engine draft", at(3), false)
	percent := e.Post(t, bob.ID, "100% sure", at(4), true)
	ctx := context.Background()

	tests := []struct {
		name      string
		keyword   string
		published bool
		want      []uint
	}{
		{"content, case-insensitive", "ENGINE", true, []uint{byContent.ID}},
		{"author name", "lovelace", true, []uint{byName.ID}},
		{"author email", "ADA@", true, []uint{byName.ID}},
		{"unpublished only", "engine", false, []uint{hidden.ID}},
		{"literal percent", "0%", true, []uint{percent.ID}},
		{"no match", "zebra", true, []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := e.svc.Feed.Search(ctx, SearchQuery{Keyword: tt.keyword, Page: models.From(0), Published: tt.published})
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(posts))
		})
	}

	_, err := e.svc.Feed.Search(ctx, SearchQuery{Keyword: "  ", Page: models.From(0)})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestSearch_BannedAuthorDisappears(t *testing.T) {
	e := newEnv(t)
	m := e.User(t, "mallory@example.com")
	e.Post(t, m.ID, "perfectly fine", at(1), true)
	ctx := context.Background()

	posts, err := e.svc.Feed.Search(ctx, SearchQuery{Keyword: "mallory", Page: models.From(0), Published: true})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, e.svc.Ledger.BanUser(ctx, m.ID))

	posts, err = e.svc.Feed.Search(ctx, SearchQuery{Keyword: "mallory", Page: models.From(0), Published: true})
	require.NoError(t, err)
	assert.Empty(t, posts)
}
