package service

import (
	"context"

	"famefeed/internal/models"
	"famefeed/internal/observability"
	"famefeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// GraphService manages follow edges and community memberships.
type GraphService struct {
	store *repository.Store
	locks *userLocks
}

func NewGraphService(store *repository.Store, locks *userLocks) *GraphService {
	if locks == nil {
		locks = newUserLocks()
	}
	return &GraphService{store: store, locks: locks}
}

// Follow adds an edge from actor to target. It reports whether the edge is new.
func (s *GraphService) Follow(ctx context.Context, actorID, targetID uint) (changed bool, err error) {
	return s.toggleFollow(ctx, "graph.Follow", actorID, targetID, func(tx *repository.Store) (bool, error) {
		return tx.Graph.Follow(ctx, actorID, targetID)
	})
}

// Unfollow removes the edge from actor to target. It reports whether an edge
// was removed.
func (s *GraphService) Unfollow(ctx context.Context, actorID, targetID uint) (changed bool, err error) {
	return s.toggleFollow(ctx, "graph.Unfollow", actorID, targetID, func(tx *repository.Store) (bool, error) {
		return tx.Graph.Unfollow(ctx, actorID, targetID)
	})
}

func (s *GraphService) toggleFollow(ctx context.Context, name string, actorID, targetID uint, apply func(tx *repository.Store) (bool, error)) (changed bool, err error) {
	span, ctx := observability.NewSpan(ctx, name,
		attribute.Int64("user.id", int64(actorID)),
		attribute.Int64("target.id", int64(targetID)),
	)
	defer func() { span.Finish(err) }()

	if actorID == targetID {
		return false, models.NewValidationError("You cannot follow yourself")
	}

	unlock := s.locks.lock(actorID)
	defer unlock()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := requireActor(ctx, tx.Users, actorID, true); err != nil {
			return err
		}
		if _, err := tx.Users.GetByID(ctx, targetID); err != nil {
			return err
		}
		changed, err = apply(tx)
		return err
	})
	return changed, err
}

// Follows lists the users the actor follows, by ascending id.
func (s *GraphService) Follows(ctx context.Context, actorID uint, page models.Page) ([]models.User, error) {
	return s.listUsers(ctx, actorID, page, s.store.Graph.Followees)
}

// Followers lists the users following the actor, by ascending id.
func (s *GraphService) Followers(ctx context.Context, actorID uint, page models.Page) ([]models.User, error) {
	return s.listUsers(ctx, actorID, page, s.store.Graph.Followers)
}

func (s *GraphService) listUsers(ctx context.Context, actorID uint, page models.Page, list func(context.Context, uint, models.Page) ([]models.User, error)) ([]models.User, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if _, err := requireActor(ctx, s.store.Users, actorID, false); err != nil {
		return nil, err
	}
	return list(ctx, actorID, page)
}

// JoinCommunity records membership of the topic's community. Admission is
// not checked here; the ledger removes members whose fame drops below Super
// Pro.
func (s *GraphService) JoinCommunity(ctx context.Context, actorID, topicID uint) (changed bool, err error) {
	return s.membership(ctx, "graph.JoinCommunity", actorID, topicID, func(tx *repository.Store) (bool, error) {
		return tx.Graph.Join(ctx, actorID, topicID)
	})
}

// LeaveCommunity removes the actor from the topic's community.
func (s *GraphService) LeaveCommunity(ctx context.Context, actorID, topicID uint) (changed bool, err error) {
	return s.membership(ctx, "graph.LeaveCommunity", actorID, topicID, func(tx *repository.Store) (bool, error) {
		return tx.Graph.Leave(ctx, actorID, topicID)
	})
}

func (s *GraphService) membership(ctx context.Context, name string, actorID, topicID uint, apply func(tx *repository.Store) (bool, error)) (changed bool, err error) {
	span, ctx := observability.NewSpan(ctx, name,
		attribute.Int64("user.id", int64(actorID)),
		attribute.Int64("topic.id", int64(topicID)),
	)
	defer func() { span.Finish(err) }()

	unlock := s.locks.lock(actorID)
	defer unlock()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := requireActor(ctx, tx.Users, actorID, true); err != nil {
			return err
		}
		if _, err := tx.Catalog.Area(ctx, topicID); err != nil {
			return err
		}
		changed, err = apply(tx)
		return err
	})
	return changed, err
}

// Communities lists the actor's communities by label.
func (s *GraphService) Communities(ctx context.Context, actorID uint) ([]models.ExpertiseArea, error) {
	if _, err := requireActor(ctx, s.store.Users, actorID, false); err != nil {
		return nil, err
	}
	return s.store.Graph.Communities(ctx, actorID)
}
