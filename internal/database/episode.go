package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Episode is a single episode of a series or anime entry.
type Episode struct {
	ID      uint `gorm:"primarykey"`
	MediaID uint `gorm:"not null;index:idx_episode_position"`
	Season  int  `gorm:"not null;index:idx_episode_position"`
	// Number is stored in the "episode" column.
	Number       int `gorm:"column:episode;not null;index:idx_episode_position"`
	Title        string
	Description  string
	DirectURL    string `gorm:"column:cloudinary_url;not null"`
	ThumbnailURL string
	CreatedAt    time.Time
}

func (c *Client) CreateEpisode(ctx context.Context, episode *Episode) error {
	if err := c.db.WithContext(ctx).Create(episode).Error; err != nil {
		log.Error("failed to create episode", "error", err)
		return translate(err)
	}
	return nil
}

func (c *Client) ListEpisodes(ctx context.Context, mediaID uint) ([]Episode, error) {
	var episodes []Episode
	if err := c.db.WithContext(ctx).
		Where("media_id = ?", mediaID).
		Order("season ASC").
		Order("episode ASC").
		Find(&episodes).Error; err != nil {
		log.Error("failed to list episodes", "error", err)
		return nil, err
	}
	return episodes, nil
}
