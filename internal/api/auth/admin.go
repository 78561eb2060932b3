package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/database"
)

// EnsureAdmin creates the configured admin account if it does not exist.
// An existing account is promoted only when promoteExisting is set; its password is never changed.
func EnsureAdmin(ctx context.Context, db database.DB, cfg *config.AdminConfig, promoteExisting bool) (*database.User, error) {
	if cfg == nil || cfg.Email == "" {
		return nil, nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Email))

	user, err := db.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.IsAdmin && promoteExisting {
			user.IsAdmin = true
			if err := db.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to promote admin: %w", err)
			}
			log.Info("promoted existing user to admin", "email", email)
		}
		return user, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	user = &database.User{
		Name:         cfg.Name,
		Email:        email,
		PasswordHash: &hash,
		AuthMethod:   database.AuthMethodLocal,
		IsAdmin:      true,
	}
	if err := db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	log.Info("created admin account", "email", email)
	return user, nil
}
