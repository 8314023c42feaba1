package repository

import (
	"context"
	"time"

	"famefeed/internal/models"

	"gorm.io/gorm"
)

// FameScore is one (user, area) entry reduced to its level's numeric value.
type FameScore struct {
	UserID          uint
	ExpertiseAreaID uint
	NumericValue    int
}

// NegativeFame is a fame entry below zero joined with the data the
// moderation report needs.
type NegativeFame struct {
	UserID          uint
	ExpertiseAreaID uint
	Label           string
	LevelName       string
	NumericValue    int
	DateJoined      time.Time
}

// FameRepository defines persistence operations for the reputation ledger.
type FameRepository interface {
	Get(ctx context.Context, userID, areaID uint) (*models.Fame, error)
	Create(ctx context.Context, fame *models.Fame) error
	SetLevel(ctx context.Context, fameID, levelID uint) error
	ListForUser(ctx context.Context, userID uint) ([]models.Fame, error)
	// Snapshot maps area ID to numeric value for one user.
	Snapshot(ctx context.Context, userID uint) (map[uint]int, error)
	Scores(ctx context.Context) ([]FameScore, error)
	Negative(ctx context.Context) ([]NegativeFame, error)
}

type fameRepository struct {
	db *gorm.DB
}

// NewFameRepository returns a new FameRepository implementation.
func NewFameRepository(db *gorm.DB) FameRepository {
	return &fameRepository{db: db}
}

func (r *fameRepository) Get(ctx context.Context, userID, areaID uint) (*models.Fame, error) {
	var fame models.Fame
	err := r.db.WithContext(ctx).
		Preload("FameLevel").
		Where("user_id = ? AND expertise_area_id = ?", userID, areaID).
		First(&fame).Error
	if err != nil {
		return nil, lookupError(err, "Fame", []uint{userID, areaID})
	}
	return &fame, nil
}

func (r *fameRepository) Create(ctx context.Context, fame *models.Fame) error {
	if err := r.db.WithContext(ctx).Omit("User", "ExpertiseArea", "FameLevel").Create(fame).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("fame entry already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *fameRepository) SetLevel(ctx context.Context, fameID, levelID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Fame{}).Where("id = ?", fameID).Update("fame_level_id", levelID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Fame", fameID)
	}
	return nil
}

func (r *fameRepository) ListForUser(ctx context.Context, userID uint) ([]models.Fame, error) {
	entries := []models.Fame{}
	err := r.db.WithContext(ctx).
		Preload("ExpertiseArea").
		Preload("FameLevel").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *fameRepository) scores(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("fame").
		Select("fame.user_id, fame.expertise_area_id, fame_levels.numeric_value").
		Joins("JOIN fame_levels ON fame_levels.id = fame.fame_level_id")
}

func (r *fameRepository) Snapshot(ctx context.Context, userID uint) (map[uint]int, error) {
	var rows []FameScore
	if err := r.scores(ctx).Where("fame.user_id = ?", userID).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make(map[uint]int, len(rows))
	for _, row := range rows {
		out[row.ExpertiseAreaID] = row.NumericValue
	}
	return out, nil
}

func (r *fameRepository) Scores(ctx context.Context) ([]FameScore, error) {
	rows := []FameScore{}
	if err := r.scores(ctx).Order("fame.user_id ASC").Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *fameRepository) Negative(ctx context.Context) ([]NegativeFame, error) {
	rows := []NegativeFame{}
	err := r.db.WithContext(ctx).
		Table("fame").
		Select("fame.user_id, fame.expertise_area_id, expertise_areas.label, fame_levels.name AS level_name, fame_levels.numeric_value, users.date_joined").
		Joins("JOIN fame_levels ON fame_levels.id = fame.fame_level_id").
		Joins("JOIN expertise_areas ON expertise_areas.id = fame.expertise_area_id").
		Joins("JOIN users ON users.id = fame.user_id").
		Where("fame_levels.numeric_value < ?", 0).
		Order("expertise_areas.label ASC").
		Order("fame_levels.numeric_value ASC").
		Order("users.date_joined DESC").
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
