// Package service implements the reputation-gated feed rules on top of the
// repositories: publication gate, fame ledger, social graph, feeds, search,
// similarity and the moderation report.
package service

import (
	"context"
	"time"

	"famefeed/internal/cache"
	"famefeed/internal/classifier"
	"famefeed/internal/featureflags"
	"famefeed/internal/models"
	"famefeed/internal/repository"
)

// Config carries the tunables the services read from application config.
type Config struct {
	Ledger              LedgerConfig
	SimilarityTolerance int
	ReportTTL           time.Duration
}

// DefaultConfig matches the application config defaults.
func DefaultConfig() Config {
	return Config{
		Ledger:              LedgerConfig{ConfuserLevel: "Confuser", SuperProLevel: "Super Pro"},
		SimilarityTolerance: 100,
		ReportTTL:           cache.ReportTTL,
	}
}

// Services bundles every service over one store. They share a single lock
// table so that operations on the same user are linearized across services.
type Services struct {
	Ledger     *Ledger
	Posts      *PostService
	Graph      *GraphService
	Feed       *FeedService
	Similarity *SimilarityService
	Moderation *ModerationService
}

// New wires the services.
func New(store *repository.Store, cls classifier.Classifier, flags *featureflags.Manager, cfg Config) *Services {
	locks := newUserLocks()
	ledger := NewLedger(store, locks, cfg.Ledger)
	return &Services{
		Ledger:     ledger,
		Posts:      NewPostService(store, cls, ledger, locks),
		Graph:      NewGraphService(store, locks),
		Feed:       NewFeedService(store, flags),
		Similarity: NewSimilarityService(store, cfg.SimilarityTolerance),
		Moderation: NewModerationService(store, cfg.ReportTTL),
	}
}

// requireActor loads the acting user and rejects unknown or banned actors.
func requireActor(ctx context.Context, users repository.UserRepository, id uint, lock bool) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if lock {
		user, err = users.GetForUpdate(ctx, id)
	} else {
		user, err = users.GetByID(ctx, id)
	}
	if models.HasCode(err, models.CodeNotFound) {
		return nil, models.NewForbiddenError("unknown user")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError("user is not active")
	}
	return user, nil
}
