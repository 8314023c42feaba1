package models

// FameLevel is one tier of the reputation ladder. NumericValue is unique and
// defines the total order; lower is worse.
type FameLevel struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	NumericValue int    `gorm:"uniqueIndex;not null" json:"numeric_value"`
}

// TruthRating is an external judgement about a post within one expertise area.
// Negative values penalize the author.
type TruthRating struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	NumericValue int    `gorm:"not null" json:"numeric_value"`
}

// Negative reports whether the rating penalizes the author.
func (r *TruthRating) Negative() bool {
	return r != nil && r.NumericValue < 0
}

// Fame is a user's current level within one expertise area. Rows are created
// lazily on the first negative rating and only ever demoted.
type Fame struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;uniqueIndex:idx_fame_user_area" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID" json:"-"`
	ExpertiseAreaID uint          `gorm:"not null;uniqueIndex:idx_fame_user_area;index" json:"expertise_area_id"`
	ExpertiseArea   ExpertiseArea `gorm:"foreignKey:ExpertiseAreaID" json:"expertise_area"`
	FameLevelID     uint          `gorm:"not null;index" json:"fame_level_id"`
	FameLevel       FameLevel     `gorm:"foreignKey:FameLevelID" json:"fame_level"`
}

// TableName specifies the table name for GORM
func (Fame) TableName() string {
	return "fame"
}
