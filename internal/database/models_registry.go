package database

import "famefeed/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.ExpertiseArea{},
		&models.FameLevel{},
		&models.TruthRating{},
		&models.Fame{},
		&models.Follow{},
		&models.CommunityMembership{},
		&models.Post{},
		&models.PostClassification{},
		&models.UserRating{},
	}
}
