package repository

import (
	"context"

	"famefeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GraphRepository stores follow edges and community memberships. Mutations
// report whether anything changed.
type GraphRepository interface {
	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Followees(ctx context.Context, userID uint, page models.Page) ([]models.User, error)
	Followers(ctx context.Context, userID uint, page models.Page) ([]models.User, error)

	Join(ctx context.Context, userID, areaID uint) (bool, error)
	Leave(ctx context.Context, userID, areaID uint) (bool, error)
	IsMember(ctx context.Context, userID, areaID uint) (bool, error)
	Communities(ctx context.Context, userID uint) ([]models.ExpertiseArea, error)
	CountCommunities(ctx context.Context, userID uint) (int64, error)
}

type graphRepository struct {
	db *gorm.DB
}

// NewGraphRepository returns a new GraphRepository implementation.
func NewGraphRepository(db *gorm.DB) GraphRepository {
	return &graphRepository{db: db}
}

func (r *graphRepository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *graphRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *graphRepository) listUsers(ctx context.Context, joinOn, where string, userID uint, page models.Page) ([]models.User, error) {
	if page.Empty() {
		return []models.User{}, nil
	}
	users := []models.User{}
	q := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("JOIN follows ON "+joinOn).
		Where(where, userID).
		Order("users.id ASC")
	if err := paginate(q, page).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return window(users, page), nil
}

func (r *graphRepository) Followees(ctx context.Context, userID uint, page models.Page) ([]models.User, error) {
	return r.listUsers(ctx, "follows.followee_id = users.id", "follows.follower_id = ?", userID, page)
}

func (r *graphRepository) Followers(ctx context.Context, userID uint, page models.Page) ([]models.User, error) {
	return r.listUsers(ctx, "follows.follower_id = users.id", "follows.followee_id = ?", userID, page)
}

func (r *graphRepository) Join(ctx context.Context, userID, areaID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.CommunityMembership{UserID: userID, ExpertiseAreaID: areaID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *graphRepository) Leave(ctx context.Context, userID, areaID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND expertise_area_id = ?", userID, areaID).
		Delete(&models.CommunityMembership{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *graphRepository) IsMember(ctx context.Context, userID, areaID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommunityMembership{}).
		Where("user_id = ? AND expertise_area_id = ?", userID, areaID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *graphRepository) Communities(ctx context.Context, userID uint) ([]models.ExpertiseArea, error) {
	areas := []models.ExpertiseArea{}
	err := r.db.WithContext(ctx).
		Model(&models.ExpertiseArea{}).
		Select("expertise_areas.*").
		Joins("JOIN community_memberships ON community_memberships.expertise_area_id = expertise_areas.id").
		Where("community_memberships.user_id = ?", userID).
		Order("expertise_areas.label ASC").
		Find(&areas).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return areas, nil
}

func (r *graphRepository) CountCommunities(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommunityMembership{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
