package service

import (
	"context"
	"sort"

	"famefeed/internal/models"
	"famefeed/internal/observability"
	"famefeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// SimilarUser is a peer and the share of the target's topics in which the
// peer's fame is within tolerance.
type SimilarUser struct {
	User       models.User `json:"user"`
	Similarity float64     `json:"similarity"`
}

// SimilarityService ranks users by fame similarity.
type SimilarityService struct {
	store     *repository.Store
	tolerance int
}

func NewSimilarityService(store *repository.Store, tolerance int) *SimilarityService {
	return &SimilarityService{store: store, tolerance: tolerance}
}

// SimilarUsers compares every other user's fame vector with the target's.
// The score is matches divided by the number of the target's topics, so it
// is not symmetric. Users scoring zero are left out. Ties are broken by most
// recent join date, then by ascending id.
func (s *SimilarityService) SimilarUsers(ctx context.Context, userID uint) (out []SimilarUser, err error) {
	span, ctx := observability.NewSpan(ctx, "similarity.SimilarUsers", attribute.Int64("user.id", int64(userID)))
	defer func() { span.Finish(err) }()

	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	scores, err := s.store.Fame.Scores(ctx)
	if err != nil {
		return nil, err
	}

	vectors := map[uint]map[uint]int{}
	for _, sc := range scores {
		v, ok := vectors[sc.UserID]
		if !ok {
			v = map[uint]int{}
			vectors[sc.UserID] = v
		}
		v[sc.ExpertiseAreaID] = sc.NumericValue
	}

	target := vectors[userID]
	if len(target) == 0 {
		return []SimilarUser{}, nil
	}

	similarity := map[uint]float64{}
	ids := []uint{}
	for other, vec := range vectors {
		if other == userID {
			continue
		}
		matches := 0
		for topic, value := range target {
			if peer, ok := vec[topic]; ok && abs(value-peer) <= s.tolerance {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		similarity[other] = float64(matches) / float64(len(target))
		ids = append(ids, other)
	}
	if len(ids) == 0 {
		return []SimilarUser{}, nil
	}

	users, err := s.store.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out = make([]SimilarUser, 0, len(users))
	for _, u := range users {
		out = append(out, SimilarUser{User: u, Similarity: similarity[u.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if !a.User.DateJoined.Equal(b.User.DateJoined) {
			return a.User.DateJoined.After(b.User.DateJoined)
		}
		return a.User.ID < b.User.ID
	})
	return out, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
