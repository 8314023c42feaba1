package repository

import (
	"context"

	"famefeed/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository reads the reference data the ledger and classifier work
// with: expertise areas, fame levels and truth ratings.
type CatalogRepository interface {
	LevelByName(ctx context.Context, name string) (*models.FameLevel, error)
	// NextLowerLevel returns the level with the greatest numeric value
	// strictly below value, or NotFound when value is already the floor.
	NextLowerLevel(ctx context.Context, value int) (*models.FameLevel, error)
	Levels(ctx context.Context) ([]models.FameLevel, error)
	Area(ctx context.Context, id uint) (*models.ExpertiseArea, error)
	Areas(ctx context.Context) ([]models.ExpertiseArea, error)
	TruthRating(ctx context.Context, id uint) (*models.TruthRating, error)
	TruthRatings(ctx context.Context) ([]models.TruthRating, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository returns a new CatalogRepository implementation.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) LevelByName(ctx context.Context, name string) (*models.FameLevel, error) {
	var level models.FameLevel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&level).Error; err != nil {
		return nil, lookupError(err, "FameLevel", name)
	}
	return &level, nil
}

func (r *catalogRepository) NextLowerLevel(ctx context.Context, value int) (*models.FameLevel, error) {
	var level models.FameLevel
	err := r.db.WithContext(ctx).
		Where("numeric_value < ?", value).
		Order("numeric_value DESC").
		First(&level).Error
	if err != nil {
		return nil, lookupError(err, "FameLevel below", value)
	}
	return &level, nil
}

func (r *catalogRepository) Levels(ctx context.Context) ([]models.FameLevel, error) {
	levels := []models.FameLevel{}
	if err := r.db.WithContext(ctx).Order("numeric_value DESC").Find(&levels).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return levels, nil
}

func (r *catalogRepository) Area(ctx context.Context, id uint) (*models.ExpertiseArea, error) {
	var area models.ExpertiseArea
	if err := r.db.WithContext(ctx).First(&area, id).Error; err != nil {
		return nil, lookupError(err, "ExpertiseArea", id)
	}
	return &area, nil
}

func (r *catalogRepository) Areas(ctx context.Context) ([]models.ExpertiseArea, error) {
	areas := []models.ExpertiseArea{}
	if err := r.db.WithContext(ctx).Order("label ASC").Find(&areas).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return areas, nil
}

func (r *catalogRepository) TruthRating(ctx context.Context, id uint) (*models.TruthRating, error) {
	var rating models.TruthRating
	if err := r.db.WithContext(ctx).First(&rating, id).Error; err != nil {
		return nil, lookupError(err, "TruthRating", id)
	}
	return &rating, nil
}

func (r *catalogRepository) TruthRatings(ctx context.Context) ([]models.TruthRating, error) {
	ratings := []models.TruthRating{}
	if err := r.db.WithContext(ctx).Order("numeric_value ASC").Find(&ratings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ratings, nil
}
