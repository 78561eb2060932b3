package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

// WatchlistEntry marks a media entry saved by a user.
type WatchlistEntry struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_watchlist_user_media"`
	MediaID   uint `gorm:"not null;uniqueIndex:idx_watchlist_user_media"`
	CreatedAt time.Time
}

func (WatchlistEntry) TableName() string { return "watchlist" }

// Rating is a user's 1-5 score for a media entry.
type Rating struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_rating_user_media"`
	MediaID   uint `gorm:"not null;uniqueIndex:idx_rating_user_media;index"`
	Rating    int  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingSummary aggregates the ratings of one media entry.
type RatingSummary struct {
	Average float64
	Count   int64
	// UserRating is the caller's own rating, if any.
	UserRating *int
}

// Comment is a user comment on a media entry.
type Comment struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	MediaID   uint   `gorm:"not null;index"`
	Text      string `gorm:"not null"`
	CreatedAt time.Time
}

// AddToWatchlist inserts the entry unless it already exists. It reports whether a row was inserted.
func (c *Client) AddToWatchlist(ctx context.Context, userID, mediaID uint) (bool, error) {
	entry := WatchlistEntry{UserID: userID, MediaID: mediaID}
	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_id"}},
		DoNothing: true,
	}).Create(&entry)
	if result.Error != nil {
		log.Error("failed to add to watchlist", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, userID, mediaID uint) (bool, error) {
	result := c.db.WithContext(ctx).Where("user_id = ? AND media_id = ?", userID, mediaID).Delete(&WatchlistEntry{})
	if result.Error != nil {
		log.Error("failed to remove from watchlist", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetWatchlist returns the saved media of a user, most recently added first.
func (c *Client) GetWatchlist(ctx context.Context, userID uint) ([]Media, error) {
	var media []Media
	if err := c.db.WithContext(ctx).
		Joins("JOIN watchlist ON watchlist.media_id = media.id").
		Where("watchlist.user_id = ?", userID).
		Order("watchlist.created_at DESC").
		Order("watchlist.id DESC").
		Find(&media).Error; err != nil {
		log.Error("failed to get watchlist", "error", err)
		return nil, err
	}
	return media, nil
}

// UpsertRating creates or replaces the rating of a user for a media entry.
func (c *Client) UpsertRating(ctx context.Context, rating *Rating) error {
	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error; err != nil {
		log.Error("failed to upsert rating", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetRatingSummary(ctx context.Context, mediaID, userID uint) (*RatingSummary, error) {
	var agg struct {
		Average float64
		Count   int64
	}
	if err := c.db.WithContext(ctx).Model(&Rating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("media_id = ?", mediaID).
		Scan(&agg).Error; err != nil {
		log.Error("failed to aggregate ratings", "error", err)
		return nil, err
	}

	summary := &RatingSummary{Average: agg.Average, Count: agg.Count}
	if userID == 0 {
		return summary, nil
	}

	var own Rating
	result := c.db.WithContext(ctx).Where("media_id = ? AND user_id = ?", mediaID, userID).Limit(1).Find(&own)
	if result.Error != nil {
		log.Error("failed to get user rating", "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		summary.UserRating = &own.Rating
	}
	return summary, nil
}

func (c *Client) CreateComment(ctx context.Context, comment *Comment) error {
	if err := c.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		log.Error("failed to create comment", "error", err)
		return err
	}
	return nil
}

// ListComments returns the comments of a media entry with their authors, newest first.
func (c *Client) ListComments(ctx context.Context, mediaID uint) ([]Comment, error) {
	var comments []Comment
	if err := c.db.WithContext(ctx).
		Preload("User").
		Where("media_id = ?", mediaID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error; err != nil {
		log.Error("failed to list comments", "error", err)
		return nil, err
	}
	return comments, nil
}
