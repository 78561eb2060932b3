// Package api wires the HTTP server of indiflix.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/indiflix/internal/api/auth"
	"github.com/jon4hz/indiflix/internal/api/cache"
	"github.com/jon4hz/indiflix/internal/api/handler"
	"github.com/jon4hz/indiflix/internal/catalog"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/scheduler"
)

// Server is the indiflix HTTP server.
type Server struct {
	cfg        *config.Config
	ginEngine  *gin.Engine
	httpServer *http.Server
	auth       *auth.Auth
	handler    *handler.Handler
	scheduler  *scheduler.Scheduler
}

// New creates the server and registers every route.
func New(
	ctx context.Context,
	cfg *config.Config,
	db database.DB,
	svc *catalog.Service,
	lookup handler.MetadataLookup,
	images *cache.ImageCache,
	sched *scheduler.Scheduler,
	debug bool,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	authenticator, err := auth.New(ctx, cfg.Auth, cfg.Gravatar, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if debug {
		engine.Use(gin.Logger())
	}
	engine.MaxMultipartMemory = cfg.Upload.MaxMemory

	s := &Server{
		cfg:       cfg,
		ginEngine: engine,
		auth:      authenticator,
		handler:   handler.New(svc, db, lookup, images),
		scheduler: sched,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupMiddleware() {
	corsCfg := cors.DefaultConfig()
	origins := s.cfg.CORS.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AddAllowHeaders("Authorization")
	s.ginEngine.Use(cors.New(corsCfg))

	// uploads and image responses are already compressed
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/media/upload", "/api/images"}),
	))
}

func (s *Server) setupRoutes() {
	h := s.handler
	a := s.auth

	s.ginEngine.GET("/health", h.Health)

	api := s.ginEngine.Group("/api")

	users := api.Group("/users")
	users.POST("/register", a.Register)
	users.POST("/login", a.Login)
	users.GET("/me", a.RequireAuth(), a.Me)

	authGroup := api.Group("/auth")
	authGroup.POST("/google-login", a.GoogleLogin)
	authGroup.GET("/config", a.Config)
	oidcGroup := authGroup.Group("/oidc", sessions.Sessions(auth.SessionName, auth.SessionStore(s.cfg.Auth.JWTSecret)))
	oidcGroup.GET("/login", a.OIDCLogin)
	oidcGroup.GET("/callback", a.OIDCCallback)

	api.GET("/images/proxy", h.ImageProxy)

	media := api.Group("/media")
	media.GET("", h.ListMedia)
	media.GET("/episodes", h.ListEpisodes)

	member := media.Group("", a.RequireAuth())
	member.GET("/watchlist", h.Watchlist)
	member.POST("/watchlist/add", h.AddToWatchlist)
	member.DELETE("/watchlist/:id", h.RemoveFromWatchlist)
	member.POST("/rate", h.Rate)
	member.GET("/:id/rating", h.GetRating)
	member.POST("/add-comment", h.AddComment)
	member.GET("/comments", h.Comments)

	admin := media.Group("", a.RequireAuth(), a.RequireAdmin())
	admin.POST("/upload", h.Upload)
	admin.POST("/upload-episode", h.UploadEpisode)
	admin.POST("/backdrop/:id", h.SetBackdrop)
	admin.DELETE("/delete/:id", h.DeleteMedia)

	media.GET("/:id", h.GetMedia)

	tmdb := api.Group("/tmdb", a.RequireAuth())
	tmdb.GET("/search", h.SearchMetadata)
	tmdb.GET("/details", h.MetadataDetails)
	tmdb.GET("/episode", h.MetadataEpisode)
	tmdb.GET("/season", h.MetadataSeason)

	adminGroup := api.Group("/admin", a.RequireAuth(), a.RequireAdmin())
	adminGroup.POST("/cache/clear", h.ClearCache)
	adminGroup.GET("/jobs", s.listJobs)
	adminGroup.POST("/jobs/:id/run", s.runJob)
}

func (s *Server) listJobs(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusOK, []scheduler.JobInfo{})
		return
	}
	c.JSON(http.StatusOK, s.scheduler.Jobs())
}

func (s *Server) runJob(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err := s.scheduler.RunNow(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	log.Info("starting API server", "listen", s.cfg.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
