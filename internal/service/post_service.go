package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"famefeed/internal/classifier"
	"famefeed/internal/models"
	"famefeed/internal/observability"
	"famefeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostService runs the submission pipeline and user ratings.
type PostService struct {
	store      *repository.Store
	classifier classifier.Classifier
	ledger     *Ledger
	locks      *userLocks
	now        func() time.Time
}

type SubmitPostInput struct {
	AuthorID    uint
	Content     string
	CitesID     *uint
	RepliesToID *uint
}

// SubmitPostResult is returned to the author. RedirectToLogout is set
// exactly when the submission got the author banned.
type SubmitPostResult struct {
	ID               uint                        `json:"id"`
	Published        bool                        `json:"published"`
	ExpertiseAreas   []models.PostClassification `json:"expertise_areas_and_ratings"`
	RedirectToLogout bool                        `json:"redirect_to_logout"`
	Adjustments      []Adjustment                `json:"-"`
}

type RatePostInput struct {
	UserID uint
	PostID uint
	Type   models.RatingType
	Score  int
}

// RateResult tells whether a rating was created or updated.
type RateResult struct {
	Outcome string            `json:"type"`
	Rating  models.UserRating `json:"rating"`
}

const (
	RateOutcomeNew    = "new"
	RateOutcomeUpdate = "update"
)

func NewPostService(store *repository.Store, cls classifier.Classifier, ledger *Ledger, locks *userLocks) *PostService {
	if locks == nil {
		locks = newUserLocks()
	}
	return &PostService{
		store:      store,
		classifier: cls,
		ledger:     ledger,
		locks:      locks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostService) validate(ctx context.Context, in SubmitPostInput) error {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(in.Content) > models.MaxPostLength {
		return models.NewValidationError("Content too long (max 1764 characters)")
	}
	for _, ref := range []*uint{in.CitesID, in.RepliesToID} {
		if ref == nil {
			continue
		}
		ok, err := s.store.Posts.Exists(ctx, *ref)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("Post", *ref)
		}
	}
	return nil
}

// SubmitPost classifies the content, decides publication from the author's
// fame before this post, applies every classification to the ledger and
// stores the post. A ban midway does not stop the remaining classifications
// from reaching the ledger, but the author is banned only once and the post
// is stored unpublished.
func (s *PostService) SubmitPost(ctx context.Context, in SubmitPostInput) (res *SubmitPostResult, err error) {
	span, ctx := observability.NewSpan(ctx, "posts.SubmitPost", attribute.Int64("user.id", int64(in.AuthorID)))
	defer func() { span.Finish(err) }()

	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	classified, err := s.classifier.Classify(ctx, in.Content)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	unlock := s.locks.lock(in.AuthorID)
	defer unlock()

	res = &SubmitPostResult{}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := requireActor(ctx, tx.Users, in.AuthorID, true); err != nil {
			return err
		}
		fame, err := tx.Fame.Snapshot(ctx, in.AuthorID)
		if err != nil {
			return err
		}

		topics := make([]uint, 0, len(classified.Classifications))
		for _, c := range classified.Classifications {
			topics = append(topics, c.ExpertiseArea.ID)
		}
		published := ShouldPublish(classified.ContainsFalseClaim, topics, fame)

		for _, c := range classified.Classifications {
			adj, err := s.ledger.adjust(ctx, tx, in.AuthorID, c.ExpertiseArea.ID, c.TruthRating, res.RedirectToLogout)
			if err != nil {
				return err
			}
			res.Adjustments = append(res.Adjustments, adj)
			if adj.Banned() {
				res.RedirectToLogout = true
			}
		}

		post := &models.Post{
			AuthorID:    in.AuthorID,
			Content:     in.Content,
			Submitted:   s.now(),
			Published:   published && !res.RedirectToLogout,
			CitesID:     in.CitesID,
			RepliesToID: in.RepliesToID,
		}
		for _, c := range classified.Classifications {
			pc := models.PostClassification{ExpertiseAreaID: c.ExpertiseArea.ID, ExpertiseArea: c.ExpertiseArea, TruthRating: c.TruthRating}
			if c.TruthRating != nil {
				id := c.TruthRating.ID
				pc.TruthRatingID = &id
			}
			post.Classifications = append(post.Classifications, pc)
		}
		if err := tx.Posts.Create(ctx, post); err != nil {
			return err
		}

		res.ID = post.ID
		res.Published = post.Published
		res.ExpertiseAreas = post.Classifications
		if res.ExpertiseAreas == nil {
			res.ExpertiseAreas = []models.PostClassification{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.committed(ctx, in.AuthorID, res.Adjustments...)
	observability.RecordSubmission(res.Published)
	span.AddAttributes(attribute.Bool("post.published", res.Published), attribute.Bool("user.banned", res.RedirectToLogout))
	slog.InfoContext(ctx, "post submitted",
		slog.Uint64("post_id", uint64(res.ID)),
		slog.Bool("published", res.Published),
		slog.Bool("banned", res.RedirectToLogout),
	)
	return res, nil
}

// RatePost records or updates the user's rating of someone else's post.
func (s *PostService) RatePost(ctx context.Context, in RatePostInput) (res *RateResult, err error) {
	span, ctx := observability.NewSpan(ctx, "posts.RatePost",
		attribute.Int64("user.id", int64(in.UserID)),
		attribute.Int64("post.id", int64(in.PostID)),
	)
	defer func() { span.Finish(err) }()

	if in.Type == "" {
		in.Type = models.RatingLike
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid rating type")
	}

	unlock := s.locks.lock(in.UserID)
	defer unlock()

	res = &RateResult{}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := requireActor(ctx, tx.Users, in.UserID, true); err != nil {
			return err
		}
		post, err := tx.Posts.GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post.AuthorID == in.UserID {
			return models.NewForbiddenError("You cannot rate your own post")
		}

		existing, err := tx.Ratings.Find(ctx, in.UserID, in.PostID, in.Type)
		switch {
		case err == nil:
			if err := tx.Ratings.UpdateScore(ctx, existing.ID, in.Score); err != nil {
				return err
			}
			existing.Score = in.Score
			res.Outcome = RateOutcomeUpdate
			res.Rating = *existing
		case models.HasCode(err, models.CodeNotFound):
			rating := models.UserRating{UserID: in.UserID, PostID: in.PostID, Type: in.Type, Score: in.Score}
			if err := tx.Ratings.Create(ctx, &rating); err != nil {
				return err
			}
			res.Outcome = RateOutcomeNew
			res.Rating = rating
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
