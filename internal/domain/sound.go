package domain

import "time"

// Sound is the domain model for an uploaded audio clip.
type Sound struct {
	ID            string
	Name          string
	UploaderID    string
	FileExtension string
	CreatedAt     time.Time
}
