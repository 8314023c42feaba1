package models

import "time"

// MaxPostLength is the maximum number of characters in a post body.
const MaxPostLength = 1764

// Post is a piece of user content. Published is decided once by the
// publication gate and only ever cleared afterwards by a ban.
type Post struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	AuthorID        uint                 `gorm:"not null;uniqueIndex:idx_posts_author_submitted" json:"author_id"`
	Author          User                 `gorm:"foreignKey:AuthorID" json:"author"`
	Content         string               `gorm:"size:1764;not null" json:"content"`
	Submitted       time.Time            `gorm:"not null;uniqueIndex:idx_posts_author_submitted;index" json:"submitted"`
	Published       bool                 `gorm:"not null;index" json:"published"`
	CitesID         *uint                `gorm:"index" json:"cites_id,omitempty"`
	RepliesToID     *uint                `gorm:"index" json:"replies_to_id,omitempty"`
	Classifications []PostClassification `gorm:"foreignKey:PostID" json:"expertise_areas_and_ratings"`
}

// PostClassification is one (expertise area, truth rating) pair assigned to a
// post by the classifier. Position keeps the classifier order.
type PostClassification struct {
	ID              uint          `gorm:"primaryKey" json:"-"`
	PostID          uint          `gorm:"not null;index" json:"-"`
	Position        int           `gorm:"not null" json:"-"`
	ExpertiseAreaID uint          `gorm:"not null;index" json:"expertise_area_id"`
	ExpertiseArea   ExpertiseArea `gorm:"foreignKey:ExpertiseAreaID" json:"expertise_area"`
	TruthRatingID   *uint         `json:"truth_rating_id,omitempty"`
	TruthRating     *TruthRating  `gorm:"foreignKey:TruthRatingID" json:"truth_rating,omitempty"`
}

// TableName specifies the table name for GORM
func (PostClassification) TableName() string {
	return "post_classifications"
}

// RatingType is the kind of a user rating.
type RatingType string

const (
	// RatingApproval marks approval of a post.
	RatingApproval RatingType = "A"
	// RatingLike marks a like. It is the default rating type.
	RatingLike RatingType = "L"
	// RatingDislike marks a dislike.
	RatingDislike RatingType = "D"
)

// Valid reports whether t is a known rating type.
func (t RatingType) Valid() bool {
	switch t {
	case RatingApproval, RatingLike, RatingDislike:
		return true
	}
	return false
}

// UserRating is a user's score for a post. One row per (user, post, type).
type UserRating struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_user_ratings_unique" json:"user_id"`
	PostID    uint       `gorm:"not null;uniqueIndex:idx_user_ratings_unique;index" json:"post_id"`
	Type      RatingType `gorm:"type:varchar(1);not null;default:'L';uniqueIndex:idx_user_ratings_unique" json:"type"`
	Score     int        `gorm:"not null" json:"score"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
