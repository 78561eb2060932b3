// Package auth implements bearer token authentication and the login flows.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/api/models"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/gravatar"
	"github.com/samber/lo"
)

const (
	userKey = "user"

	googleIssuer  = "https://accounts.google.com"
	googleCertURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// IDTokenVerifier verifies OpenID Connect ID tokens.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Auth authenticates requests and serves the login endpoints.
type Auth struct {
	db       database.DB
	tokens   *Tokens
	cfg      *config.AuthConfig
	gravatar *config.GravatarConfig
	google   IDTokenVerifier
	oidc     *OIDCProvider
}

// New creates the authenticator. Google and OIDC login are only set up when configured.
func New(ctx context.Context, cfg *config.AuthConfig, gravatarCfg *config.GravatarConfig, db database.DB) (*Auth, error) {
	a := &Auth{
		db:       db,
		tokens:   NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		cfg:      cfg,
		gravatar: gravatarCfg,
	}

	if cfg.Google != nil && cfg.Google.ClientID != "" {
		keySet := oidc.NewRemoteKeySet(ctx, googleCertURL)
		a.google = oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{ClientID: cfg.Google.ClientID})
		log.Info("google login enabled")
	}

	if cfg.OIDC != nil && cfg.OIDC.Enabled {
		p, err := NewOIDCProvider(ctx, cfg.OIDC)
		if err != nil {
			return nil, err
		}
		a.oidc = p
		log.Info("oidc login enabled", "issuer", cfg.OIDC.Issuer)
	}

	return a, nil
}

// Tokens returns the token issuer.
func (a *Auth) Tokens() *Tokens {
	return a.tokens
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// RequireAuth rejects requests without a valid bearer token for an existing user.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			log.Debug("rejected bearer token", "error", err)
			unauthorized(c)
			return
		}

		user, err := a.db.GetUserByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, database.ErrNotFound) {
			unauthorized(c)
			return
		}
		if err != nil {
			log.Error("failed to load user", "id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin rejects users without the admin flag. It must run after RequireAuth.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c *gin.Context) (*database.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*database.User)
	return user, ok && user != nil
}

// userView converts a user and fills a missing picture from Gravatar.
func (a *Auth) userView(u *database.User) models.User {
	view := models.ToUser(u)
	view.ProfilePicture = gravatar.ProfilePicture(u.ProfilePicture, u.Email, a.gravatar)
	return view
}

func (a *Auth) respondWithToken(c *gin.Context, status int, user *database.User) {
	token, err := a.tokens.Issue(user)
	if err != nil {
		log.Error("failed to issue token", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(status, models.AuthResponse{Token: token, User: a.userView(user)})
}

// identity is a verified external account.
type identity struct {
	Email   string
	Name    string
	Picture string
}

// externalUser returns the account for a verified external identity, creating it on first login.
func (a *Auth) externalUser(ctx context.Context, id identity, method database.AuthMethod, promote bool) (*database.User, error) {
	user, err := a.db.GetUserByEmail(ctx, id.Email)
	if errors.Is(err, database.ErrNotFound) {
		user = &database.User{
			Name:           lo.CoalesceOrEmpty(strings.TrimSpace(id.Name), id.Email),
			Email:          id.Email,
			ProfilePicture: id.Picture,
			AuthMethod:     method,
			IsAdmin:        promote,
		}
		if err := a.db.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		log.Info("created user from external login", "email", user.Email, "method", method, "admin", user.IsAdmin)
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	changed := false
	if user.ProfilePicture == "" && id.Picture != "" {
		user.ProfilePicture = id.Picture
		changed = true
	}
	if promote && !user.IsAdmin {
		user.IsAdmin = true
		changed = true
		log.Info("promoted user to admin", "email", user.Email)
	}
	if changed {
		if err := a.db.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
