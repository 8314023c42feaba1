package service

import (
	"context"
	"sort"
	"time"

	"famefeed/internal/cache"
	"famefeed/internal/models"
	"famefeed/internal/observability"
	"famefeed/internal/repository"
)

// Bullshitter is a user with negative fame in a topic.
type Bullshitter struct {
	User                  models.User `json:"user"`
	FameLevelName         string      `json:"fame_level_name"`
	FameLevelNumericValue int         `json:"fame_level_numeric_value"`
}

// BullshitterGroup lists the offenders of one topic, worst first.
type BullshitterGroup struct {
	ExpertiseArea models.ExpertiseArea `json:"expertise_area"`
	Users         []Bullshitter        `json:"users"`
}

// ModerationService builds the low-reputation report.
type ModerationService struct {
	store *repository.Store
	ttl   time.Duration
}

func NewModerationService(store *repository.Store, ttl time.Duration) *ModerationService {
	if ttl <= 0 {
		ttl = cache.ReportTTL
	}
	return &ModerationService{store: store, ttl: ttl}
}

// Bullshitters groups every negative fame entry by topic. Groups are ordered
// by topic label; entries by fame ascending, then most recent join date, then
// user id. Topics without negative entries are omitted.
func (s *ModerationService) Bullshitters(ctx context.Context) (groups []BullshitterGroup, err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.Bullshitters")
	defer func() { span.Finish(err) }()

	groups = []BullshitterGroup{}
	err = cache.Aside(ctx, "bullshitters", cache.BullshittersKey, &groups, s.ttl, func() error {
		built, err := s.build(ctx)
		if err != nil {
			return err
		}
		groups = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *ModerationService) build(ctx context.Context) ([]BullshitterGroup, error) {
	rows, err := s.store.Fame.Negative(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []BullshitterGroup{}, nil
	}

	ids := make([]uint, 0, len(rows))
	seen := map[uint]bool{}
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	users, err := s.store.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	index := map[uint]int{}
	groups := []BullshitterGroup{}
	for _, r := range rows {
		i, ok := index[r.ExpertiseAreaID]
		if !ok {
			i = len(groups)
			index[r.ExpertiseAreaID] = i
			groups = append(groups, BullshitterGroup{
				ExpertiseArea: models.ExpertiseArea{ID: r.ExpertiseAreaID, Label: r.Label},
			})
		}
		groups[i].Users = append(groups[i].Users, Bullshitter{
			User:                  byID[r.UserID],
			FameLevelName:         r.LevelName,
			FameLevelNumericValue: r.NumericValue,
		})
	}

	// the query already orders rows, but driver time handling differs
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].ExpertiseArea.Label < groups[j].ExpertiseArea.Label
	})
	for _, g := range groups {
		sort.SliceStable(g.Users, func(i, j int) bool {
			a, b := g.Users[i], g.Users[j]
			if a.FameLevelNumericValue != b.FameLevelNumericValue {
				return a.FameLevelNumericValue < b.FameLevelNumericValue
			}
			if !a.User.DateJoined.Equal(b.User.DateJoined) {
				return a.User.DateJoined.After(b.User.DateJoined)
			}
			return a.User.ID < b.User.ID
		})
	}
	return groups, nil
}
