package models

import "time"

// ExpertiseArea is a content topic. The same identity doubles as a community
// users can belong to.
type ExpertiseArea struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Label string `gorm:"size:100;uniqueIndex;not null" json:"label"`
}

// CommunityMembership maps users to the expertise-area communities they joined.
type CommunityMembership struct {
	UserID          uint           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User            *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ExpertiseAreaID uint           `gorm:"primaryKey;autoIncrement:false;index" json:"expertise_area_id"`
	ExpertiseArea   *ExpertiseArea `gorm:"foreignKey:ExpertiseAreaID" json:"expertise_area,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CommunityMembership) TableName() string {
	return "community_memberships"
}
