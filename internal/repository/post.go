package repository

import (
	"context"
	"strings"

	"famefeed/internal/models"
	"famefeed/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines persistence operations for posts. List methods
// return materialized, ordered pages: newest submission first.
type PostRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	UnpublishByAuthor(ctx context.Context, authorID uint) (int64, error)
	// Timeline lists posts by followed authors matching published, plus all
	// of the viewer's own posts.
	Timeline(ctx context.Context, viewerID uint, published bool, page models.Page) ([]models.Post, error)
	// CommunityTimeline lists posts classified into a topic whose community
	// both the viewer and the author belong to, each post at most once.
	CommunityTimeline(ctx context.Context, viewerID uint, page models.Page) ([]models.Post, error)
	Search(ctx context.Context, keyword string, published bool, page models.Page) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Preload("Author").
		Preload("Classifications", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Classifications.ExpertiseArea").
		Preload("Classifications.TruthRating")
}

func (r *postRepository) list(q *gorm.DB, page models.Page) ([]models.Post, error) {
	if page.Empty() {
		return []models.Post{}, nil
	}
	posts := []models.Post{}
	err := paginate(q.Order("posts.submitted DESC").Order("posts.id DESC"), page).Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return window(posts, page), nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts the post and its classifications. Associated users, areas
// and ratings are referenced by ID only and never written.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	db := r.db.WithContext(ctx)
	classifications := post.Classifications
	post.Classifications = nil

	if err := db.Omit(clause.Associations).Create(post).Error; err != nil {
		post.Classifications = classifications
		if isUniqueViolation(err) {
			return models.NewConflictError("a post with this submission time already exists for the author")
		}
		return models.NewInternalError(err)
	}

	for i := range classifications {
		classifications[i].PostID = post.ID
		classifications[i].Position = i
	}
	post.Classifications = classifications
	if len(classifications) == 0 {
		return nil
	}
	if err := db.Omit(clause.Associations).Create(&post.Classifications).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) UnpublishByAuthor(ctx context.Context, authorID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ? AND published = ?", authorID, true).
		Update("published", false)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *postRepository) Timeline(ctx context.Context, viewerID uint, published bool, page models.Page) ([]models.Post, error) {
	defer observability.TrackQuery("timeline", "posts")()

	followees := r.db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", viewerID)
	q := r.withDetails(ctx).
		Where("(posts.author_id IN (?) AND posts.published = ?) OR posts.author_id = ?", followees, published, viewerID)
	return r.list(q, page)
}

func (r *postRepository) CommunityTimeline(ctx context.Context, viewerID uint, page models.Page) ([]models.Post, error) {
	defer observability.TrackQuery("community_timeline", "posts")()

	// author and viewer must share the community of the same classified topic
	matching := r.db.Table("post_classifications AS pc").
		Select("pc.post_id").
		Joins("JOIN posts AS p ON p.id = pc.post_id").
		Joins("JOIN community_memberships AS viewer ON viewer.expertise_area_id = pc.expertise_area_id AND viewer.user_id = ?", viewerID).
		Joins("JOIN community_memberships AS author ON author.expertise_area_id = pc.expertise_area_id AND author.user_id = p.author_id")

	q := r.withDetails(ctx).
		Where("posts.id IN (?)", matching).
		Where("posts.published = ? OR posts.author_id = ?", true, viewerID)
	return r.list(q, page)
}

func (r *postRepository) Search(ctx context.Context, keyword string, published bool, page models.Page) ([]models.Post, error) {
	defer observability.TrackQuery("search", "posts")()

	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	q := r.withDetails(ctx).
		Select("posts.*").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.published = ?", published).
		Where(`(LOWER(posts.content) LIKE ? ESCAPE '!'
			OR LOWER(users.email) LIKE ? ESCAPE '!'
			OR LOWER(users.first_name) LIKE ? ESCAPE '!'
			OR LOWER(users.last_name) LIKE ? ESCAPE '!')`, pattern, pattern, pattern, pattern)
	return r.list(q, page)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
