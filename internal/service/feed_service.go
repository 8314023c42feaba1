package service

import (
	"context"
	"strings"

	"famefeed/internal/featureflags"
	"famefeed/internal/models"
	"famefeed/internal/observability"
	"famefeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// TimelineMode selects the visibility regime of a timeline.
type TimelineMode string

const (
	ModeStandard  TimelineMode = "standard"
	ModeCommunity TimelineMode = "community"
)

// ParseTimelineMode maps "" to standard and rejects unknown modes.
func ParseTimelineMode(raw string) (TimelineMode, error) {
	switch TimelineMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeCommunity:
		return ModeCommunity, nil
	}
	return "", models.NewValidationError("mode must be standard or community")
}

type TimelineQuery struct {
	UserID uint
	Mode   TimelineMode
	Page   models.Page
	// Published filters posts by followed authors. The viewer's own posts
	// are listed either way. Ignored in community mode.
	Published bool
}

type SearchQuery struct {
	Keyword   string
	Page      models.Page
	Published bool
}

// FeedService composes timelines and searches posts.
type FeedService struct {
	store *repository.Store
	flags *featureflags.Manager
}

func NewFeedService(store *repository.Store, flags *featureflags.Manager) *FeedService {
	return &FeedService{store: store, flags: flags}
}

// Timeline returns the viewer's feed, newest first.
func (s *FeedService) Timeline(ctx context.Context, q TimelineQuery) (posts []models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "feed.Timeline",
		attribute.Int64("user.id", int64(q.UserID)),
		attribute.String("feed.mode", string(q.Mode)),
	)
	defer func() { span.Finish(err) }()

	if err := q.Page.Validate(); err != nil {
		return nil, err
	}
	if _, err := requireActor(ctx, s.store.Users, q.UserID, false); err != nil {
		return nil, err
	}

	switch q.Mode {
	case ModeStandard, "":
		return s.store.Posts.Timeline(ctx, q.UserID, q.Published, q.Page)
	case ModeCommunity:
		if !s.flags.Enabled(featureflags.CommunityFeed, q.UserID) {
			return nil, models.NewForbiddenError("community feed is not enabled")
		}
		n, err := s.store.Graph.CountCommunities(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return []models.Post{}, nil
		}
		return s.store.Posts.CommunityTimeline(ctx, q.UserID, q.Page)
	}
	return nil, models.NewValidationError("mode must be standard or community")
}

// Search matches the keyword against post content and author email and
// names, case-insensitively.
func (s *FeedService) Search(ctx context.Context, q SearchQuery) (posts []models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "feed.Search")
	defer func() { span.Finish(err) }()

	if err := q.Page.Validate(); err != nil {
		return nil, err
	}
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.store.Posts.Search(ctx, keyword, q.Published, q.Page)
}
