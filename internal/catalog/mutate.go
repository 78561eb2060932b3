package catalog

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/streamurl"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const destroyConcurrency = 4

// SetBackdrop replaces the hero image of a media entry with an uploaded image or a URL.
func (s *Service) SetBackdrop(ctx context.Context, id uint, image *mediahost.File, backdropURL string) (*MediaView, error) {
	backdropURL = strings.TrimSpace(backdropURL)
	if image == nil && backdropURL == "" {
		return nil, validationError("backdrop image or backdrop_url is required")
	}

	if _, err := s.db.GetMediaByID(ctx, id); err != nil {
		return nil, storeError("get media", err)
	}

	if image != nil {
		batch := &uploadBatch{host: s.host}
		asset, err := batch.upload(ctx, streamurl.ResourceTypeImage, image)
		if err != nil {
			return nil, err
		}
		backdropURL = asset.URL
		if err := s.db.UpdateMediaBackdrop(ctx, id, backdropURL); err != nil {
			s.discard(ctx, batch.assets)
			return nil, storeError("update backdrop", err)
		}
	} else if err := s.db.UpdateMediaBackdrop(ctx, id, backdropURL); err != nil {
		return nil, storeError("update backdrop", err)
	}

	log.Info("backdrop updated", "id", id, "url", backdropURL)
	return s.GetMedia(ctx, id)
}

// DeleteMedia removes a media entry with its episodes, then removes the hosted binaries.
// Host failures are logged and do not undo the deletion.
func (s *Service) DeleteMedia(ctx context.Context, id uint) error {
	media, err := s.db.GetMediaByID(ctx, id)
	if err != nil {
		return storeError("get media", err)
	}
	episodes, err := s.db.ListEpisodes(ctx, id)
	if err != nil {
		return storeError("list episodes", err)
	}

	if err := s.db.DeleteMedia(ctx, id); err != nil {
		return storeError("delete media", err)
	}
	log.Info("media deleted", "id", id, "title", media.Title, "episodes", len(episodes))

	urls := []string{lo.FromPtr(media.DirectURL), media.ThumbnailURL, media.BackdropURL}
	for _, ep := range episodes {
		urls = append(urls, ep.DirectURL, ep.ThumbnailURL)
	}
	s.destroyHosted(context.WithoutCancel(ctx), urls)
	return nil
}

// destroyHosted removes every URL that points at an asset of the configured account.
func (s *Service) destroyHosted(ctx context.Context, urls []string) {
	assets := lo.UniqBy(
		lo.FilterMap(urls, func(u string, _ int) (streamurl.Asset, bool) {
			return s.deriver.Owns(u)
		}),
		func(a streamurl.Asset) string { return string(a.ResourceType) + "/" + a.PublicID },
	)

	var g errgroup.Group
	g.SetLimit(destroyConcurrency)
	for _, a := range assets {
		resourceType := a.ResourceType
		if resourceType != streamurl.ResourceTypeImage {
			resourceType = streamurl.ResourceTypeVideo
		}
		g.Go(func() error {
			if err := s.host.Destroy(ctx, a.PublicID, resourceType); err != nil {
				log.Warn("failed to remove hosted asset", "public_id", a.PublicID, "type", resourceType, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

