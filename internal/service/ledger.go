package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"famefeed/internal/cache"
	"famefeed/internal/models"
	"famefeed/internal/notifications"
	"famefeed/internal/observability"
	"famefeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// LedgerConfig names the two fame levels the ledger rules refer to.
type LedgerConfig struct {
	// ConfuserLevel is assigned on a user's first offense in a topic.
	ConfuserLevel string
	// SuperProLevel is the minimum standing to remain in a community.
	SuperProLevel string
}

// AdjustmentKind describes what a ledger adjustment did.
type AdjustmentKind string

const (
	AdjustNone    AdjustmentKind = "none"
	AdjustCreated AdjustmentKind = "created"
	AdjustDemoted AdjustmentKind = "demoted"
	AdjustBanned  AdjustmentKind = "banned"
)

// Adjustment is the outcome of one ledger adjustment.
type Adjustment struct {
	Kind    AdjustmentKind    `json:"kind"`
	TopicID uint              `json:"expertise_area_id,omitempty"`
	Level   *models.FameLevel `json:"level,omitempty"`
	// Evicted is set when the user lost the topic's community membership.
	Evicted bool `json:"evicted"`
}

// Banned reports whether the adjustment suspended the user.
func (a Adjustment) Banned() bool {
	return a.Kind == AdjustBanned
}

// FameEntry is one line of a fame profile.
type FameEntry struct {
	ExpertiseArea models.ExpertiseArea `json:"expertise_area"`
	FameLevel     models.FameLevel     `json:"fame_level"`
}

// FameProfile is a user plus their fame per topic, ordered by topic label.
type FameProfile struct {
	User models.User `json:"user"`
	Fame []FameEntry `json:"fame"`
}

// Ledger owns the fame state machine and the ban cascade.
type Ledger struct {
	store    *repository.Store
	locks    *userLocks
	cfg      LedgerConfig
	notifier *notifications.Notifier
}

// NewLedger returns a Ledger. locks may be shared with other services.
func NewLedger(store *repository.Store, locks *userLocks, cfg LedgerConfig) *Ledger {
	if locks == nil {
		locks = newUserLocks()
	}
	return &Ledger{store: store, locks: locks, cfg: cfg}
}

// SetNotifier publishes committed adjustments through n.
func (l *Ledger) SetNotifier(n *notifications.Notifier) {
	l.notifier = n
}

// Adjust applies a truth rating for (user, topic) inside the caller's
// transaction. Non-negative or missing ratings leave the ledger untouched.
// An existing entry is demoted one level, or the user is banned when no
// lower level exists. A first offense creates the entry at the Confuser
// level. After a demotion or creation the user leaves the topic's community
// if the new level is below Super Pro.
func (l *Ledger) Adjust(ctx context.Context, tx *repository.Store, userID, topicID uint, rating *models.TruthRating) (Adjustment, error) {
	return l.adjust(ctx, tx, userID, topicID, rating, false)
}

// adjust is Adjust for a unit of work that may already have banned the user.
// With banned set, running out of lower levels changes nothing.
func (l *Ledger) adjust(ctx context.Context, tx *repository.Store, userID, topicID uint, rating *models.TruthRating, banned bool) (Adjustment, error) {
	if !rating.Negative() {
		return Adjustment{Kind: AdjustNone}, nil
	}

	var adj Adjustment
	fame, err := tx.Fame.Get(ctx, userID, topicID)
	switch {
	case err == nil:
		lower, err := tx.Catalog.NextLowerLevel(ctx, fame.FameLevel.NumericValue)
		if models.HasCode(err, models.CodeNotFound) {
			if banned {
				return Adjustment{Kind: AdjustNone, TopicID: topicID}, nil
			}
			if err := l.Ban(ctx, tx, userID); err != nil {
				return Adjustment{}, err
			}
			return Adjustment{Kind: AdjustBanned, TopicID: topicID, Level: &fame.FameLevel}, nil
		}
		if err != nil {
			return Adjustment{}, err
		}
		if err := tx.Fame.SetLevel(ctx, fame.ID, lower.ID); err != nil {
			return Adjustment{}, err
		}
		adj = Adjustment{Kind: AdjustDemoted, TopicID: topicID, Level: lower}

	case models.HasCode(err, models.CodeNotFound):
		confuser, err := l.requiredLevel(ctx, tx, l.cfg.ConfuserLevel)
		if err != nil {
			return Adjustment{}, err
		}
		entry := &models.Fame{UserID: userID, ExpertiseAreaID: topicID, FameLevelID: confuser.ID}
		if err := tx.Fame.Create(ctx, entry); err != nil {
			return Adjustment{}, err
		}
		adj = Adjustment{Kind: AdjustCreated, TopicID: topicID, Level: confuser}

	default:
		return Adjustment{}, err
	}

	superPro, err := l.requiredLevel(ctx, tx, l.cfg.SuperProLevel)
	if err != nil {
		return Adjustment{}, err
	}
	if adj.Level.NumericValue < superPro.NumericValue {
		adj.Evicted, err = tx.Graph.Leave(ctx, userID, topicID)
		if err != nil {
			return Adjustment{}, err
		}
	}
	return adj, nil
}

// Ban deactivates the user and unpublishes all of their posts inside the
// caller's transaction.
func (l *Ledger) Ban(ctx context.Context, tx *repository.Store, userID uint) error {
	if err := tx.Users.Deactivate(ctx, userID); err != nil {
		return err
	}
	n, err := tx.Posts.UnpublishByAuthor(ctx, userID)
	if err != nil {
		return fmt.Errorf("unpublish posts of user %d: %w", userID, err)
	}
	slog.InfoContext(ctx, "user banned", slog.Uint64("user_id", uint64(userID)), slog.Int64("unpublished_posts", n))
	return nil
}

func (l *Ledger) requiredLevel(ctx context.Context, tx *repository.Store, name string) (*models.FameLevel, error) {
	level, err := tx.Catalog.LevelByName(ctx, name)
	if models.HasCode(err, models.CodeNotFound) {
		observability.ConfigurationErrors.WithLabelValues(name).Inc()
		slog.ErrorContext(ctx, "required fame level is not configured", slog.String("level", name))
		return nil, models.NewConfigurationError(fmt.Sprintf("fame level %q is not configured", name))
	}
	return level, err
}

// AdjustFame applies a truth rating to a user's fame in one topic as its
// own unit of work. The boolean result is true when the user got banned and
// must be logged out.
func (l *Ledger) AdjustFame(ctx context.Context, userID, topicID, ratingID uint) (adj Adjustment, logout bool, err error) {
	span, ctx := observability.NewSpan(ctx, "ledger.AdjustFame",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("topic.id", int64(topicID)),
	)
	defer func() { span.Finish(err) }()

	unlock := l.locks.lock(userID)
	defer unlock()

	err = l.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetForUpdate(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Catalog.Area(ctx, topicID); err != nil {
			return err
		}
		rating, err := tx.Catalog.TruthRating(ctx, ratingID)
		if err != nil {
			return err
		}
		adj, err = l.Adjust(ctx, tx, userID, topicID, rating)
		return err
	})
	if err != nil {
		return Adjustment{}, false, err
	}

	l.committed(ctx, userID, adj)
	return adj, adj.Banned(), nil
}

// BanUser bans a user as its own unit of work. Banning an inactive user
// again is harmless.
func (l *Ledger) BanUser(ctx context.Context, userID uint) (err error) {
	span, ctx := observability.NewSpan(ctx, "ledger.BanUser", attribute.Int64("user.id", int64(userID)))
	defer func() { span.Finish(err) }()

	unlock := l.locks.lock(userID)
	defer unlock()

	err = l.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetForUpdate(ctx, userID); err != nil {
			return err
		}
		return l.Ban(ctx, tx, userID)
	})
	if err != nil {
		return err
	}
	l.committed(ctx, userID, Adjustment{Kind: AdjustBanned})
	return nil
}

// committed records metrics, drops cached views of the user's ledger state
// and publishes the adjustments once they are durable.
func (l *Ledger) committed(ctx context.Context, userID uint, adjs ...Adjustment) {
	changed := false
	for _, adj := range adjs {
		if adj.Kind == AdjustNone {
			continue
		}
		changed = true
		observability.LedgerAdjustments.WithLabelValues(string(adj.Kind)).Inc()
		if adj.Evicted {
			observability.CommunityEvictions.Inc()
		}
		l.publish(ctx, userID, adj)
	}
	if changed {
		cache.InvalidateLedger(ctx, userID)
	}
}

func (l *Ledger) publish(ctx context.Context, userID uint, adj Adjustment) {
	if l.notifier == nil {
		return
	}
	ev := notifications.Event{
		Type:            string(adj.Kind),
		UserID:          userID,
		ExpertiseAreaID: adj.TopicID,
		Evicted:         adj.Evicted,
		At:              time.Now().UTC(),
	}
	if adj.Level != nil {
		ev.FameLevel = adj.Level.Name
	}
	if err := l.notifier.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish ledger event",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}

// FameOf returns the user's fame profile.
func (l *Ledger) FameOf(ctx context.Context, userID uint) (profile *FameProfile, err error) {
	span, ctx := observability.NewSpan(ctx, "ledger.FameOf", attribute.Int64("user.id", int64(userID)))
	defer func() { span.Finish(err) }()

	profile = &FameProfile{}
	err = cache.Aside(ctx, "fame_profile", cache.FameProfileKey(userID), profile, cache.FameProfileTTL, func() error {
		user, err := l.store.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		entries, err := l.store.Fame.ListForUser(ctx, userID)
		if err != nil {
			return err
		}
		profile.User = *user
		profile.Fame = make([]FameEntry, 0, len(entries))
		for _, e := range entries {
			profile.Fame = append(profile.Fame, FameEntry{ExpertiseArea: e.ExpertiseArea, FameLevel: e.FameLevel})
		}
		sort.SliceStable(profile.Fame, func(i, j int) bool {
			return profile.Fame[i].ExpertiseArea.Label < profile.Fame[j].ExpertiseArea.Label
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}
