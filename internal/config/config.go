package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
)

// Config holds the configuration for the indiflix server and its dependencies.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// CORS holds the cross-origin settings for the browser frontend.
	CORS *CORSConfig `yaml:"cors" mapstructure:"cors"`
	// Auth holds the authentication configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cloudinary holds the media host credentials.
	Cloudinary *CloudinaryConfig `yaml:"cloudinary" mapstructure:"cloudinary"`
	// Metadata holds the external metadata provider configuration.
	Metadata *MetadataConfig `yaml:"metadata" mapstructure:"metadata"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Upload holds multipart upload limits.
	Upload *UploadConfig `yaml:"upload" mapstructure:"upload"`
	// Images holds the image proxy cache configuration.
	Images *ImagesConfig `yaml:"images" mapstructure:"images"`
	// Gravatar holds the avatar fallback configuration.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// CORSConfig holds the CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC secret used to sign bearer tokens.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// Google holds the Google sign-in configuration.
	Google *GoogleConfig `yaml:"google" mapstructure:"google"`
	// OIDC holds the OpenID Connect configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
	// Admin is the account bootstrapped on startup.
	Admin *AdminConfig `yaml:"admin" mapstructure:"admin"`
}

// GoogleConfig holds the Google ID token login configuration.
type GoogleConfig struct {
	// ClientID is the OAuth client id the ID tokens must be issued for.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
}

// OIDCConfig holds the OpenID Connect configuration.
type OIDCConfig struct {
	// Enabled indicates whether OIDC authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Name is the display name for the OIDC provider.
	Name string `yaml:"name" mapstructure:"name"`
	// Issuer is the OIDC issuer URL.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OIDC client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OIDC client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the redirect URL for the oidc flow.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
	// AdminGroup is the group that has admin privileges.
	AdminGroup string `yaml:"admin_group" mapstructure:"admin_group"`
	// FrontendURL is where the browser is sent with the issued token.
	FrontendURL string `yaml:"frontend_url" mapstructure:"frontend_url"`
}

// AdminConfig describes the bootstrap admin account.
type AdminConfig struct {
	Email    string `yaml:"email" mapstructure:"email"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Driver selects the gorm dialector.
	Driver DatabaseDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// DSN is the connection string for postgres and mysql.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// CloudinaryConfig holds the media host configuration.
type CloudinaryConfig struct {
	// CloudName identifies the account and is part of every delivery URL.
	CloudName string `yaml:"cloud_name" mapstructure:"cloud_name"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	APISecret string `yaml:"api_secret" mapstructure:"api_secret"`
	// Folder is the asset folder uploads are placed in.
	Folder string `yaml:"folder" mapstructure:"folder"`
}

// Configured reports whether uploads can be sent to the media host.
func (c *CloudinaryConfig) Configured() bool {
	return c != nil && c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// MetadataConfig holds the metadata provider configuration.
type MetadataConfig struct {
	TMDB *TMDBConfig `yaml:"tmdb" mapstructure:"tmdb"`
	OMDB *OMDBConfig `yaml:"omdb" mapstructure:"omdb"`
	// PosterCacheTTL is how long poster lookups are cached.
	PosterCacheTTL time.Duration `yaml:"poster_cache_ttl" mapstructure:"poster_cache_ttl"`
}

// TMDBConfig holds the configuration for The Movie Database API.
type TMDBConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// URL is the API base URL.
	URL string `yaml:"url" mapstructure:"url"`
	// ImageURL is prefixed to poster and backdrop paths.
	ImageURL string `yaml:"image_url" mapstructure:"image_url"`
}

// OMDBConfig holds the configuration for the OMDb API.
type OMDBConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// URL is the API base URL.
	URL string `yaml:"url" mapstructure:"url"`
}

// CacheConfig holds the cache engine configuration.
type CacheConfig struct {
	// Type is the type of cache to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL of the Redis server.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// UploadConfig holds the multipart upload limits.
type UploadConfig struct {
	// MaxMemory is the number of bytes of a multipart form kept in memory, the rest spills to disk.
	MaxMemory int64 `yaml:"max_memory" mapstructure:"max_memory"`
}

// ImagesConfig holds the image proxy cache configuration.
type ImagesConfig struct {
	CacheDir  string `yaml:"cache_dir" mapstructure:"cache_dir"`
	MaxWidth  int    `yaml:"max_width" mapstructure:"max_width"`
	MaxHeight int    `yaml:"max_height" mapstructure:"max_height"`
	// Quality is the JPEG quality (1-100) of resized images.
	Quality int `yaml:"quality" mapstructure:"quality"`
	// MaxAge is how long cached images are kept before being pruned.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
	// AllowedHosts restricts which hosts the proxy fetches from.
	AllowedHosts []string `yaml:"allowed_hosts" mapstructure:"allowed_hosts"`
	// CleanupSchedule is the cron schedule of the prune job.
	CleanupSchedule string `yaml:"cleanup_schedule" mapstructure:"cleanup_schedule"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether accounts without a picture get a Gravatar URL.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the image shown when no Gravatar exists (404, mp, identicon, monsterid, wavatar, retro, robohash, blank).
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating (g, pg, r, x).
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the image size in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A .env file in the working directory is loaded first, without overriding the existing environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()

	bindNestedEnv(v)

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("INDIFLIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.indiflix")
		v.AddConfigPath("/etc/indiflix")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	} else {
		log.Debug("No config file found, using defaults and INDIFLIX_ environment variables")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.google.client_id", "")
	v.SetDefault("auth.oidc.enabled", false)
	v.SetDefault("auth.oidc.name", "OIDC")
	v.SetDefault("auth.oidc.issuer", "")
	v.SetDefault("auth.oidc.client_id", "")
	v.SetDefault("auth.oidc.client_secret", "")
	v.SetDefault("auth.oidc.redirect_url", "")
	v.SetDefault("auth.oidc.admin_group", "")
	v.SetDefault("auth.oidc.frontend_url", "/")
	v.SetDefault("auth.admin.email", "")
	v.SetDefault("auth.admin.password", "")
	v.SetDefault("auth.admin.name", "Admin")

	// Database defaults
	v.SetDefault("database.driver", DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/indiflix.db")
	v.SetDefault("database.dsn", "")

	// Cloudinary defaults
	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.folder", "indiflix")

	// Metadata defaults
	v.SetDefault("metadata.tmdb.url", "https://api.themoviedb.org/3")
	v.SetDefault("metadata.tmdb.image_url", "https://image.tmdb.org/t/p/w780")
	v.SetDefault("metadata.omdb.url", "https://www.omdbapi.com")
	v.SetDefault("metadata.poster_cache_ttl", 24*time.Hour)

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("upload.max_memory", 32<<20)

	// Image proxy defaults
	v.SetDefault("images.cache_dir", "./data/cache/images")
	v.SetDefault("images.max_width", 780)
	v.SetDefault("images.max_height", 1170)
	v.SetDefault("images.quality", 85)
	v.SetDefault("images.max_age", 30*24*time.Hour)
	v.SetDefault("images.allowed_hosts", []string{"image.tmdb.org", "res.cloudinary.com", "m.media-amazon.com"})
	v.SetDefault("images.cleanup_schedule", "0 4 * * *")

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "mp")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// Credentials without a default have to be bound manually.
func bindNestedEnv(v *viper.Viper) {
	// Cloudinary
	v.MustBindEnv("cloudinary.cloud_name", "INDIFLIX_CLOUDINARY_CLOUD_NAME")
	v.MustBindEnv("cloudinary.api_key", "INDIFLIX_CLOUDINARY_API_KEY")
	v.MustBindEnv("cloudinary.api_secret", "INDIFLIX_CLOUDINARY_API_SECRET")
	v.MustBindEnv("cloudinary.folder", "INDIFLIX_CLOUDINARY_FOLDER")

	// Metadata providers
	v.MustBindEnv("metadata.tmdb.api_key", "INDIFLIX_METADATA_TMDB_API_KEY", "TMDB_API_KEY")
	v.MustBindEnv("metadata.omdb.api_key", "INDIFLIX_METADATA_OMDB_API_KEY", "OMDB_API_KEY")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing indiflix config")
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth JWT secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth JWT secret must be at least 16 characters long")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be positive")
	}

	if c.Auth.OIDC != nil && c.Auth.OIDC.Enabled {
		if c.Auth.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC issuer is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC client ID is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC client secret is required when OIDC is enabled")
		}
		if c.Auth.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC redirect URL is required when OIDC is enabled")
		}
	}

	if c.Auth.Admin != nil && c.Auth.Admin.Email != "" && len(c.Auth.Admin.Password) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters long")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DatabaseDriverPostgres, DatabaseDriverMySQL:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unsupported cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	if c.Images != nil {
		if len(strings.Fields(c.Images.CleanupSchedule)) != 5 {
			return fmt.Errorf("image cleanup schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
		if c.Images.Quality < 1 || c.Images.Quality > 100 {
			return fmt.Errorf("image quality must be between 1 and 100")
		}
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		switch c.Gravatar.DefaultImage {
		case "", "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank":
		default:
			return fmt.Errorf("invalid gravatar default image %q", c.Gravatar.DefaultImage)
		}
		switch c.Gravatar.Rating {
		case "", "g", "pg", "r", "x":
		default:
			return fmt.Errorf("invalid gravatar rating %q", c.Gravatar.Rating)
		}
		if c.Gravatar.Size < 0 || c.Gravatar.Size > 2048 {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
	}

	if c.Cloudinary != nil && c.Cloudinary.CloudName != "" && !c.Cloudinary.Configured() {
		log.Warn("cloudinary cloud name is set without API credentials, uploads are disabled")
	}

	return nil
}

// sanitizeConfig normalizes URLs and enum values.
func sanitizeConfig(c *Config) {
	c.ServerURL = urlSanitize(c.ServerURL)

	if c.Metadata != nil {
		if c.Metadata.TMDB != nil {
			c.Metadata.TMDB.URL = urlSanitize(c.Metadata.TMDB.URL)
			c.Metadata.TMDB.ImageURL = urlSanitize(c.Metadata.TMDB.ImageURL)
		}
		if c.Metadata.OMDB != nil {
			c.Metadata.OMDB.URL = urlSanitize(c.Metadata.OMDB.URL)
		}
	}

	if c.Database != nil {
		c.Database.Driver = DatabaseDriver(strings.ToLower(strings.TrimSpace(string(c.Database.Driver))))
	}
	if c.Cache != nil {
		c.Cache.Type = CacheType(strings.ToLower(strings.TrimSpace(string(c.Cache.Type))))
	}
	if c.Cloudinary != nil {
		c.Cloudinary.CloudName = strings.TrimSpace(c.Cloudinary.CloudName)
		c.Cloudinary.Folder = strings.Trim(c.Cloudinary.Folder, "/")
	}
	if c.Auth != nil && c.Auth.Admin != nil {
		c.Auth.Admin.Email = strings.ToLower(strings.TrimSpace(c.Auth.Admin.Email))
	}
}

func urlSanitize(url string) string {
	return strings.TrimRight(url, "/")
}
