package models

import "time"

// User is the public view of an account.
type User struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	IsAdmin        bool   `json:"isAdmin"`
	ProfilePicture string `json:"profilePicture"`
}

// AuthResponse is returned by every login flow.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Media is a catalog entry as served to clients. Nullable fields are JSON null when unknown.
type Media struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	CloudinaryURL *string   `json:"cloudinary_url"`
	HLSURL        *string   `json:"hls_url"`
	ThumbnailURL  *string   `json:"thumbnail_url"`
	BackdropURL   *string   `json:"backdrop_url"`
	Poster        *string   `json:"poster"`
	ReleaseYear   *string   `json:"release_year"`
	Genre         string    `json:"genre"`
	CreatedAt     time.Time `json:"created_at"`
}

// Episode is an episode as served to clients.
type Episode struct {
	ID            uint      `json:"id"`
	MediaID       uint      `json:"media_id"`
	Season        int       `json:"season"`
	Episode       int       `json:"episode"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CloudinaryURL string    `json:"cloudinary_url"`
	HLSURL        *string   `json:"hls_url"`
	ThumbnailURL  *string   `json:"thumbnail_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// UploadResponse is returned after a media upload.
type UploadResponse struct {
	MediaID       uint    `json:"media_id"`
	VideoURL      *string `json:"video_url"`
	HLSURL        *string `json:"hls_url"`
	ThumbnailURL  *string `json:"thumbnail_url"`
	BackdropURL   *string `json:"backdrop_url"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	ReleaseYear   *string `json:"release_year"`
	Genre         string  `json:"genre"`
	CloudinaryURL *string `json:"cloudinary_url"`
	EpisodeID     *uint   `json:"episode_id,omitempty"`
}

// EpisodeUploadResponse is returned after an episode upload.
type EpisodeUploadResponse struct {
	EpisodeID    uint    `json:"episode_id"`
	MediaID      uint    `json:"media_id"`
	Season       int     `json:"season"`
	Episode      int     `json:"episode"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoURL     string  `json:"video_url"`
	HLSURL       *string `json:"hls_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// RatingSummary aggregates the ratings of a media entry.
type RatingSummary struct {
	Average    float64 `json:"average"`
	Count      int64   `json:"count"`
	UserRating *int    `json:"user_rating"`
}

// Comment is a user comment with its author's name.
type Comment struct {
	ID        uint      `json:"id"`
	MediaID   uint      `json:"media_id"`
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// EpisodeInfo is a provider episode record.
type EpisodeInfo struct {
	Season   int    `json:"season"`
	Episode  int    `json:"episode"`
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Still    string `json:"still"`
	AirDate  string `json:"air_date"`
}
