// Package gravatar builds avatar URLs for accounts without a profile picture.
package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/jon4hz/indiflix/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the Gravatar URL for email, or "" when Gravatar is disabled or email is empty.
func URL(email string, cfg *config.GravatarConfig) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(hash[:])

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Set("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Set("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Set("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// ProfilePicture returns picture when set, otherwise the Gravatar of email.
func ProfilePicture(picture, email string, cfg *config.GravatarConfig) string {
	if picture != "" {
		return picture
	}
	return URL(email, cfg)
}
