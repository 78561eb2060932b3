package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jon4hz/indiflix/internal/api/models"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type failingVerifier struct{}

func (failingVerifier) Verify(context.Context, string) (*oidc.IDToken, error) {
	return nil, errors.New("bad token")
}

type AuthTestSuite struct {
	suite.Suite
	db     *mock.MockDB
	auth   *Auth
	router *gin.Engine
}

func (s *AuthTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = mock.NewMockDB()

	cfg := &config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour}
	a, err := New(context.Background(), cfg, &config.GravatarConfig{Enabled: true, DefaultImage: "mp", Rating: "g", Size: 80}, s.db)
	s.Require().NoError(err)
	s.auth = a

	s.router = gin.New()
	s.router.POST("/auth/register", a.Register)
	s.router.POST("/auth/login", a.Login)
	s.router.POST("/auth/google", a.GoogleLogin)
	s.router.GET("/auth/config", a.Config)
	s.router.GET("/auth/me", a.RequireAuth(), a.Me)
	s.router.GET("/admin", a.RequireAuth(), a.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func (s *AuthTestSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthTestSuite) register(email string) models.AuthResponse {
	w := s.do(http.MethodPost, "/auth/register", gin.H{"name": "Ada", "email": email, "password": "secret1"}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp models.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *AuthTestSuite) TestRegisterAndMe() {
	resp := s.register("Ada@Example.com")
	assert.NotEmpty(s.T(), resp.Token)
	assert.Equal(s.T(), "ada@example.com", resp.User.Email)
	assert.False(s.T(), resp.User.IsAdmin)
	assert.Contains(s.T(), resp.User.ProfilePicture, "https://www.gravatar.com/avatar/")

	w := s.do(http.MethodGet, "/auth/me", nil, resp.Token)
	s.Require().Equal(http.StatusOK, w.Code)
	var me models.User
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(s.T(), resp.User.ID, me.ID)
}

func (s *AuthTestSuite) TestRegisterValidation() {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"email": "a@b.c", "password": "secret1"}},
		{"bad email", gin.H{"name": "A", "email": "nope", "password": "secret1"}},
		{"short password", gin.H{"name": "A", "email": "a@b.c", "password": "12345"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/auth/register", tt.body, "")
			assert.Equal(s.T(), http.StatusBadRequest, w.Code)
		})
	}
}

func (s *AuthTestSuite) TestRegisterDuplicate() {
	s.register("ada@example.com")
	w := s.do(http.MethodPost, "/auth/register", gin.H{"name": "Ada", "email": "ADA@example.com", "password": "secret1"}, "")
	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *AuthTestSuite) TestLogin() {
	s.register("ada@example.com")

	w := s.do(http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "secret1"}, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "wrong!"}, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Contains(s.T(), w.Body.String(), "Invalid email or password")

	w = s.do(http.MethodPost, "/auth/login", gin.H{"email": "nobody@example.com", "password": "secret1"}, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthTestSuite) TestLoginExternalAccountHasNoPassword() {
	s.Require().NoError(s.db.CreateUser(context.Background(), &database.User{
		Name: "G", Email: "g@example.com", AuthMethod: database.AuthMethodGoogle,
	}))
	w := s.do(http.MethodPost, "/auth/login", gin.H{"email": "g@example.com", "password": "anything"}, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthTestSuite) TestRequireAuth() {
	resp := s.register("ada@example.com")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + resp.Token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid", "Bearer " + resp.Token, http.StatusOK},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(s.T(), tt.want, w.Code)
		})
	}
}

func (s *AuthTestSuite) TestRequireAuthDeletedUser() {
	token, err := s.auth.Tokens().Issue(&database.User{ID: 42, Email: "gone@example.com"})
	s.Require().NoError(err)
	w := s.do(http.MethodGet, "/auth/me", nil, token)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthTestSuite) TestRequireAdmin() {
	resp := s.register("ada@example.com")

	w := s.do(http.MethodGet, "/admin", nil, resp.Token)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	// the flag is read from the store, so promotion applies to existing tokens
	user, err := s.db.GetUserByID(context.Background(), resp.User.ID)
	s.Require().NoError(err)
	user.IsAdmin = true
	s.Require().NoError(s.db.UpdateUser(context.Background(), user))

	w = s.do(http.MethodGet, "/admin", nil, resp.Token)
	assert.Equal(s.T(), http.StatusNoContent, w.Code)
}

func (s *AuthTestSuite) TestGoogleLogin() {
	w := s.do(http.MethodPost, "/auth/google", gin.H{"token": "x"}, "")
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	s.auth.google = failingVerifier{}
	s.auth.cfg.Google = &config.GoogleConfig{ClientID: "client"}

	w = s.do(http.MethodPost, "/auth/google", gin.H{}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/google", gin.H{"token": "x"}, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthTestSuite) TestConfig() {
	w := s.do(http.MethodGet, "/auth/config", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"local":true,"google":false,"oidc":{"enabled":false}}`, w.Body.String())
}

func (s *AuthTestSuite) TestExternalUserCreatesAndPromotes() {
	ctx := context.Background()
	user, err := s.auth.externalUser(ctx, identity{Email: "o@example.com", Picture: "https://idp/p.png"}, database.AuthMethodOIDC, false)
	s.Require().NoError(err)
	assert.Equal(s.T(), "o@example.com", user.Name)
	assert.False(s.T(), user.IsAdmin)

	again, err := s.auth.externalUser(ctx, identity{Email: "o@example.com"}, database.AuthMethodOIDC, true)
	s.Require().NoError(err)
	assert.Equal(s.T(), user.ID, again.ID)
	assert.True(s.T(), again.IsAdmin)
	assert.Equal(s.T(), "https://idp/p.png", again.ProfilePicture)
}

func (s *AuthTestSuite) oidcRoutes() {
	oidcGroup := s.router.Group("/auth/oidc", sessions.Sessions(SessionName, SessionStore(testSecret)))
	oidcGroup.GET("/login", s.auth.OIDCLogin)
	oidcGroup.GET("/callback", s.auth.OIDCCallback)
}

func (s *AuthTestSuite) TestOIDCNotConfigured() {
	s.oidcRoutes()

	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, "/auth/oidc/login", nil, "").Code)
	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, "/auth/oidc/callback", nil, "").Code)
}

func (s *AuthTestSuite) TestOIDCStateCheck() {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	s.auth.oidc = &OIDCProvider{
		cfg: &config.OIDCConfig{FrontendURL: "/"},
		config: &oauth2.Config{
			ClientID: "client",
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://idp.example.com/authorize",
				TokenURL: tokenServer.URL,
			},
		},
	}
	s.oidcRoutes()

	w := s.do(http.MethodGet, "/auth/oidc/login", nil, "")
	s.Require().Equal(http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	assert.Equal(s.T(), "idp.example.com", location.Host)
	state := location.Query().Get("state")
	s.Require().NotEmpty(state)
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)

	callback := func(state string, withSession bool) int {
		req := httptest.NewRequest(http.MethodGet, "/auth/oidc/callback?code=abc&state="+url.QueryEscape(state), nil)
		if withSession {
			for _, ck := range cookies {
				req.AddCookie(ck)
			}
		}
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(s.T(), http.StatusBadRequest, callback(state, false))
	assert.Equal(s.T(), http.StatusBadRequest, callback("forged", true))
	// the state matches, so the flow reaches the code exchange which the token server rejects
	assert.Equal(s.T(), http.StatusUnauthorized, callback(state, true))
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func TestTokens(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	user := &database.User{ID: 7, Email: "a@b.c"}

	raw, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("another-secret-value-xx", time.Hour).Parse(raw)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokens(testSecret, time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		expired, err := old.Issue(user)
		require.NoError(t, err)
		_, err = tokens.Parse(expired)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("other signing method", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID:           7,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(unsigned)
		assert.Error(t, err)
	})
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	db := mock.NewMockDB()

	user, err := EnsureAdmin(ctx, db, nil, false)
	require.NoError(t, err)
	assert.Nil(t, user)

	cfg := &config.AdminConfig{Email: "Root@Example.com", Password: "secret1", Name: "Root"}
	user, err = EnsureAdmin(ctx, db, cfg, false)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "root@example.com", user.Email)

	again, err := EnsureAdmin(ctx, db, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	require.NoError(t, db.CreateUser(ctx, &database.User{Name: "P", Email: "p@example.com"}))
	plain, err := EnsureAdmin(ctx, db, &config.AdminConfig{Email: "p@example.com", Password: "secret1"}, false)
	require.NoError(t, err)
	assert.False(t, plain.IsAdmin)

	promoted, err := EnsureAdmin(ctx, db, &config.AdminConfig{Email: "p@example.com", Password: "secret1"}, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
}
