package auth

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/samber/lo"
)

const (
	// SessionName is the cookie holding the short lived OIDC login session.
	SessionName = "indiflix_oidc"
	stateKey    = "oidc_state"
)

// SessionStore returns the cookie store backing the OIDC login session.
func SessionStore(secret string) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// OIDCLogin redirects the browser to the identity provider.
func (a *Auth) OIDCLogin(c *gin.Context) {
	if a.oidc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "OIDC login is not configured"})
		return
	}

	state := uuid.New().String()
	session := sessions.Default(c)
	session.Set(stateKey, state)
	if err := session.Save(); err != nil {
		log.Error("failed to save oidc session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}
	c.Redirect(http.StatusFound, a.oidc.config.AuthCodeURL(state))
}

// OIDCCallback completes the authorization code flow and hands the token to the frontend.
func (a *Auth) OIDCCallback(c *gin.Context) {
	if a.oidc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "OIDC login is not configured"})
		return
	}

	session := sessions.Default(c)
	state, _ := session.Get(stateKey).(string)
	session.Delete(stateKey)
	_ = session.Save()
	if state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	ctx := c.Request.Context()
	oauth2Token, err := a.oidc.config.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.Warn("oidc code exchange failed", "error", err)
		unauthorized(c)
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "missing id token"})
		return
	}

	idToken, err := a.oidc.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Warn("oidc id token rejected", "error", err)
		unauthorized(c)
		return
	}

	var claims struct {
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Picture           string   `json:"picture"`
		Groups            []string `json:"groups"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity provider did not return an email"})
		return
	}

	admin := a.oidc.cfg.AdminGroup != "" && slices.Contains(claims.Groups, a.oidc.cfg.AdminGroup)
	user, err := a.externalUser(ctx, identity{
		Email:   strings.ToLower(claims.Email),
		Name:    lo.CoalesceOrEmpty(claims.Name, claims.PreferredUsername),
		Picture: claims.Picture,
	}, database.AuthMethodOIDC, admin)
	if err != nil {
		log.Error("failed to resolve oidc user", "email", claims.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.Redirect(http.StatusFound, a.oidc.cfg.FrontendURL+"#token="+url.QueryEscape(token))
}
