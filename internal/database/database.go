package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/jon4hz/indiflix/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

// DB is the storage interface used by the rest of the application.
type DB interface {
	// Media
	CreateMedia(ctx context.Context, media *Media) error
	GetMediaByID(ctx context.Context, id uint) (*Media, error)
	ListMedia(ctx context.Context, filter MediaFilter) ([]Media, error)
	UpdateMediaBackdrop(ctx context.Context, id uint, backdropURL string) error
	DeleteMedia(ctx context.Context, id uint) error

	// Episodes
	CreateEpisode(ctx context.Context, episode *Episode) error
	ListEpisodes(ctx context.Context, mediaID uint) ([]Episode, error)

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	// Engagement
	AddToWatchlist(ctx context.Context, userID, mediaID uint) (bool, error)
	RemoveFromWatchlist(ctx context.Context, userID, mediaID uint) (bool, error)
	GetWatchlist(ctx context.Context, userID uint) ([]Media, error)
	UpsertRating(ctx context.Context, rating *Rating) error
	GetRatingSummary(ctx context.Context, mediaID, userID uint) (*RatingSummary, error)
	CreateComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, mediaID uint) ([]Comment, error)

	Close() error
}

var _ DB = (*Client)(nil) // Ensure Client implements DB

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New opens the configured database and performs migrations.
func New(cfg *config.DatabaseConfig) (*Client, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	c := &Client{db: db}
	if err := c.Migrate(); err != nil {
		return nil, err
	}

	return c, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Path), nil
	case config.DatabaseDriverPostgres:
		return postgres.Open(cfg.DSN), nil
	case config.DatabaseDriverMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the schema. It is safe to run repeatedly.
func (c *Client) Migrate() error {
	if err := c.db.AutoMigrate(
		&User{},
		&Media{},
		&Episode{},
		&WatchlistEntry{},
		&Rating{},
		&Comment{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors to the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
