package dto

// SoundResponse is the public sound shape.
type SoundResponse struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Uploader      UserResponse `json:"uploader"`
	FileURL       string       `json:"file_url"`
	FavoriteCount int64        `json:"favorite_count"`
}

// SoundListResponse wraps paged sound listings.
type SoundListResponse struct {
	MaxPages    int             `json:"max_pages,omitempty"`
	CurrentPage int             `json:"current_page,omitempty"`
	Sounds      []SoundResponse `json:"sounds"`
}

// FavoriteRequest payload for favorite add/remove.
type FavoriteRequest struct {
	SoundID string `json:"sound_id"`
}
