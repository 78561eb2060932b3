package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/api"
	imagecache "github.com/jon4hz/indiflix/internal/api/cache"
	"github.com/jon4hz/indiflix/internal/api/auth"
	"github.com/jon4hz/indiflix/internal/cache"
	"github.com/jon4hz/indiflix/internal/catalog"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/mediahost/cloudinary"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/jon4hz/indiflix/internal/scheduler"
	"github.com/jon4hz/indiflix/internal/streamurl"
	"github.com/jon4hz/indiflix/pkg/omdb"
	"github.com/jon4hz/indiflix/pkg/tmdb"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the indiflix server",
	Long:  `Start the indiflix API server with its background jobs.`,
	Example: `indiflix serve --config config.yml
indiflix serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newMediaHost(cfg *config.CloudinaryConfig) mediahost.Host {
	if !cfg.Configured() {
		log.Warn("cloudinary is not configured, uploads are disabled")
		return mediahost.Unconfigured{}
	}
	client, err := cloudinary.New(cfg)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}
	return client
}

func newScheduler(cfg *config.Config, images *imagecache.ImageCache) *scheduler.Scheduler {
	sched, err := scheduler.New()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if cfg.Images.CleanupSchedule == "" {
		return sched
	}
	err = sched.AddCronJob("image-cleanup", "Image cache cleanup", "Removes proxied images older than the configured max age", cfg.Images.CleanupSchedule,
		func(context.Context) error {
			removed, err := images.CleanupOldImages(cfg.Images.MaxAge)
			if err != nil {
				return err
			}
			log.Info("pruned image cache", "removed", removed)
			return nil
		},
	)
	if err != nil {
		log.Fatalf("failed to schedule image cleanup: %v", err)
	}
	return sched
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint: errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	posters := cache.New[metadata.PosterEntry](cfg.Cache, "posters-", cfg.Metadata.PosterCacheTTL)
	enricher := metadata.NewEnricher(posters,
		metadata.NewTMDB(tmdb.New(cfg.Metadata.TMDB)),
		metadata.NewOMDb(omdb.New(cfg.Metadata.OMDB)),
	)
	if !enricher.IsConfigured() {
		log.Warn("no metadata provider is configured, uploads will not be enriched")
	}

	svc := catalog.New(db, newMediaHost(cfg.Cloudinary), enricher, streamurl.New(cfg.Cloudinary.CloudName))

	if _, err := auth.EnsureAdmin(ctx, db, cfg.Auth.Admin, false); err != nil {
		log.Fatalf("failed to bootstrap admin account: %v", err)
	}

	images := imagecache.NewImageCache(cfg.Images)
	sched := newScheduler(cfg, images)

	server, err := api.New(ctx, cfg, db, svc, enricher, images, sched, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
		}
	}()

	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("API server error: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("indiflix started successfully", "listen", cfg.Listen)
	select {
	case <-c:
	case <-ctx.Done():
	}
	log.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down API server", "error", err)
	}
}
