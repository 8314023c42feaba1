// Package models contains data structures for the application's domain models.
package models

import "time"

// User is the platform account as seen by the feed engine. Identity and
// credentials are owned by the surrounding platform; the engine only flips
// IsActive and maintains follow and community edges.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName  string    `gorm:"size:150" json:"first_name"`
	LastName   string    `gorm:"size:150" json:"last_name"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	DateJoined time.Time `gorm:"not null;index" json:"date_joined"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}
