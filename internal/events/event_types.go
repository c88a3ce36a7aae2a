package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventSoundUploaded   EventType = "sound_uploaded"
	EventFavoriteAdded   EventType = "favorite_added"
	EventFavoriteRemoved EventType = "favorite_removed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// SoundUploadedPayload payload.
type SoundUploadedPayload struct {
	SoundID    string `json:"sound_id"`
	Name       string `json:"name"`
	UploaderID string `json:"uploader_id"`
}

// FavoritePayload payload for favorite add/remove events.
type FavoritePayload struct {
	UserID  string `json:"user_id"`
	SoundID string `json:"sound_id"`
}
