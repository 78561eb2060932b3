// Package catalog implements the media upload pipeline and the enriched catalog reads.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/jon4hz/indiflix/internal/streamurl"
)

var (
	// ErrValidation marks requests rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks media host failures.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrStore marks persistence failures.
	ErrStore = errors.New("store error")
	// ErrNotFound is returned for unknown media or episodes.
	ErrNotFound = errors.New("not found")
)

// Enricher resolves metadata for uploads and posters for reads.
type Enricher interface {
	Enrich(ctx context.Context, q metadata.Query) *metadata.Record
	LookupPoster(ctx context.Context, title, year string, kind metadata.Kind) string
}

// Service coordinates the store, the media host and the metadata providers.
type Service struct {
	db       database.DB
	host     mediahost.Host
	enricher Enricher
	deriver  streamurl.Deriver
}

// New creates a catalog service.
func New(db database.DB, host mediahost.Host, enricher Enricher, deriver streamurl.Deriver) *Service {
	return &Service{
		db:       db,
		host:     host,
		enricher: enricher,
		deriver:  deriver,
	}
}

// Deriver returns the streaming URL deriver used by the service.
func (s *Service) Deriver() streamurl.Deriver {
	return s.deriver
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storeError(op string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	log.Error("store operation failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// streamURL derives the manifest of a stored direct URL. Image assets have no manifest.
func (s *Service) streamURL(directURL *string) *string {
	if directURL == nil {
		return nil
	}
	if asset, ok := streamurl.Parse(*directURL); ok && asset.ResourceType == streamurl.ResourceTypeImage {
		return nil
	}
	return s.deriver.ForURL(directURL)
}
