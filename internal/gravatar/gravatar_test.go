package gravatar

import (
	"testing"

	"github.com/jon4hz/indiflix/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	// sha256 of "test@example.com"
	const hash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

	tests := []struct {
		name  string
		email string
		cfg   *config.GravatarConfig
		want  string
	}{
		{
			name:  "disabled",
			email: "test@example.com",
			cfg:   &config.GravatarConfig{Enabled: false},
			want:  "",
		},
		{
			name:  "nil config",
			email: "test@example.com",
			want:  "",
		},
		{
			name:  "empty email",
			email: "  ",
			cfg:   &config.GravatarConfig{Enabled: true},
			want:  "",
		},
		{
			name:  "no parameters",
			email: "test@example.com",
			cfg:   &config.GravatarConfig{Enabled: true},
			want:  "https://www.gravatar.com/avatar/" + hash,
		},
		{
			name:  "normalized email with parameters",
			email: "  Test@Example.COM ",
			cfg:   &config.GravatarConfig{Enabled: true, DefaultImage: "mp", Rating: "g", Size: 80},
			want:  "https://www.gravatar.com/avatar/" + hash + "?d=mp&r=g&s=80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.email, tt.cfg))
		})
	}
}

func TestProfilePicture(t *testing.T) {
	cfg := &config.GravatarConfig{Enabled: true}
	assert.Equal(t, "https://lh3.googleusercontent.com/a/pic", ProfilePicture("https://lh3.googleusercontent.com/a/pic", "test@example.com", cfg))
	assert.Contains(t, ProfilePicture("", "test@example.com", cfg), "https://www.gravatar.com/avatar/")
	assert.Empty(t, ProfilePicture("", "test@example.com", nil))
}
