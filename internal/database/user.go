package database

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// AuthMethod records how an account signs in.
type AuthMethod string

const (
	AuthMethodLocal  AuthMethod = "local"
	AuthMethodGoogle AuthMethod = "google"
	AuthMethodOIDC   AuthMethod = "oidc"
)

// User represents an account. The admin flag is authoritative here, not in issued tokens.
type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null;size:255"`
	// PasswordHash is nil for accounts created through an external login.
	PasswordHash   *string
	IsAdmin        bool `gorm:"not null;default:false"`
	ProfilePicture string
	AuthMethod     AuthMethod `gorm:"not null;default:local;size:16"`
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		err = translate(err)
		if err != ErrDuplicate {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Save(user).Error; err != nil {
		log.Error("failed to update user", "error", err)
		return translate(err)
	}
	return nil
}
