package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/database"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates a local account and returns a token.
func (a *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	switch {
	case req.Name == "" || req.Email == "" || req.Password == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	case !strings.Contains(req.Email, "@"):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	case len(req.Password) < minPasswordLength:
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters long"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user := &database.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hash,
		AuthMethod:   database.AuthMethodLocal,
	}
	if err := a.db.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	log.Info("user registered", "id", user.ID, "email", user.Email)

	a.respondWithToken(c, http.StatusCreated, user)
}

// Login verifies a local password and returns a token.
func (a *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := a.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	if user == nil || user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	a.respondWithToken(c, http.StatusOK, user)
}

// Me returns the authenticated user.
func (a *Auth) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		unauthorized(c)
		return
	}
	c.JSON(http.StatusOK, a.userView(user))
}

// GoogleLogin exchanges a Google ID token for a bearer token.
func (a *Auth) GoogleLogin(c *gin.Context) {
	if a.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google login is not configured"})
		return
	}

	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	ctx := c.Request.Context()
	idToken, err := a.google.Verify(ctx, req.Token)
	if err != nil {
		log.Debug("rejected google id token", "error", err)
		unauthorized(c)
		return
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" || !claims.EmailVerified {
		unauthorized(c)
		return
	}

	user, err := a.externalUser(ctx, identity{
		Email:   strings.ToLower(claims.Email),
		Name:    claims.Name,
		Picture: claims.Picture,
	}, database.AuthMethodGoogle, false)
	if err != nil {
		log.Error("failed to resolve google user", "email", claims.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	a.respondWithToken(c, http.StatusOK, user)
}

// Config reports which login methods are available.
func (a *Auth) Config(c *gin.Context) {
	resp := gin.H{
		"local":  true,
		"google": a.google != nil,
		"oidc": gin.H{
			"enabled": a.oidc != nil,
		},
	}
	if a.google != nil {
		resp["googleClientId"] = a.cfg.Google.ClientID
	}
	if a.oidc != nil {
		resp["oidc"] = gin.H{
			"enabled": true,
			"name":    a.oidc.cfg.Name,
		}
	}
	c.JSON(http.StatusOK, resp)
}
