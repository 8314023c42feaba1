package repository

import (
	"context"

	"famefeed/internal/models"

	"gorm.io/gorm"
)

// RatingRepository defines persistence operations for user ratings.
type RatingRepository interface {
	Find(ctx context.Context, userID, postID uint, ratingType models.RatingType) (*models.UserRating, error)
	Create(ctx context.Context, rating *models.UserRating) error
	UpdateScore(ctx context.Context, id uint, score int) error
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Find(ctx context.Context, userID, postID uint, ratingType models.RatingType) (*models.UserRating, error) {
	var rating models.UserRating
	err := forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND post_id = ? AND type = ?", userID, postID, ratingType).
		First(&rating).Error
	if err != nil {
		return nil, lookupError(err, "UserRating", postID)
	}
	return &rating, nil
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.UserRating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("rating already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ratingRepository) UpdateScore(ctx context.Context, id uint, score int) error {
	res := r.db.WithContext(ctx).Model(&models.UserRating{}).Where("id = ?", id).Update("score", score)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	return nil
}
