package domain

import "time"

// DefaultProfilePicture is the placeholder image assigned to new accounts.
const DefaultProfilePicture = "default.jpg"

// User is the domain model for registered accounts.
type User struct {
	ID                     string
	Username               string
	Email                  string
	HashedPassword         string
	ProfilePictureFileName string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
