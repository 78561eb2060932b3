package database

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// MediaType is the kind of a catalog entry.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
	MediaTypeAnime  MediaType = "anime"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeMovie, MediaTypeSeries, MediaTypeAnime:
		return true
	}
	return false
}

// Episodic reports whether entries of this type own episodes.
func (t MediaType) Episodic() bool {
	return t == MediaTypeSeries || t == MediaTypeAnime
}

// Media is a catalog entry.
type Media struct {
	ID          uint      `gorm:"primarykey"`
	Title       string    `gorm:"not null;index"`
	Description string
	Type        MediaType `gorm:"not null;index;size:16"`
	// DirectURL is the asset URL returned by the media host. Series shells may not have one.
	DirectURL    *string `gorm:"column:cloudinary_url"`
	ThumbnailURL string
	BackdropURL  string
	ReleaseYear  *string `gorm:"size:4"`
	Genre        string
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	Episodes     []Episode `gorm:"constraint:OnDelete:CASCADE;"`
}

func (Media) TableName() string { return "media" }

// MediaFilter narrows a media listing.
type MediaFilter struct {
	// Type is ignored when empty.
	Type MediaType
	// Query is matched case-insensitively against title, description and genre.
	Query  string
	Limit  int
	Offset int
}

func (c *Client) CreateMedia(ctx context.Context, media *Media) error {
	if err := c.db.WithContext(ctx).Omit("Episodes").Create(media).Error; err != nil {
		log.Error("failed to create media", "error", err)
		return translate(err)
	}
	return nil
}

func (c *Client) GetMediaByID(ctx context.Context, id uint) (*Media, error) {
	var media Media
	if err := c.db.WithContext(ctx).First(&media, id).Error; err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error("failed to get media by ID", "error", err)
		}
		return nil, err
	}
	return &media, nil
}

// likeEscaper makes LIKE wildcards in a search term literal. The escape character is '!'
// on every driver.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (c *Client) ListMedia(ctx context.Context, filter MediaFilter) ([]Media, error) {
	tx := c.db.WithContext(ctx).Model(&Media{})

	if filter.Type != "" {
		tx = tx.Where("type = ?", filter.Type)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		tx = tx.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(genre) LIKE ? ESCAPE '!'", pattern, pattern, pattern)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}

	var media []Media
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&media).Error; err != nil {
		log.Error("failed to list media", "error", err)
		return nil, err
	}
	return media, nil
}

func (c *Client) UpdateMediaBackdrop(ctx context.Context, id uint, backdropURL string) error {
	result := c.db.WithContext(ctx).Model(&Media{}).Where("id = ?", id).Update("backdrop_url", backdropURL)
	if result.Error != nil {
		log.Error("failed to update media backdrop", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMedia removes a media row together with its episodes and engagement rows.
func (c *Client) DeleteMedia(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&Episode{}, &WatchlistEntry{}, &Rating{}, &Comment{}} {
			if err := tx.Where("media_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&Media{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && err != ErrNotFound {
		log.Error("failed to delete media", "id", id, "error", err)
	}
	return err
}
