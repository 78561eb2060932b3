package models

import (
	"math"

	"github.com/jon4hz/indiflix/internal/catalog"
	"github.com/jon4hz/indiflix/internal/database"
	"github.com/jon4hz/indiflix/internal/metadata"
	"github.com/samber/lo"
)

// ToUser converts a database.User to its public view.
func ToUser(u *database.User) User {
	return User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		IsAdmin:        u.IsAdmin,
		ProfilePicture: u.ProfilePicture,
	}
}

// ToMedia converts an enriched catalog row.
func ToMedia(v catalog.MediaView) Media {
	return Media{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		Type:          string(v.Type),
		CloudinaryURL: v.DirectURL,
		HLSURL:        v.HLSURL,
		ThumbnailURL:  lo.EmptyableToPtr(v.ThumbnailURL),
		BackdropURL:   lo.EmptyableToPtr(v.BackdropURL),
		Poster:        v.Poster,
		ReleaseYear:   v.ReleaseYear,
		Genre:         v.Genre,
		CreatedAt:     v.CreatedAt,
	}
}

// ToMediaList converts a slice of enriched rows. The result is never nil.
func ToMediaList(views []catalog.MediaView) []Media {
	result := make([]Media, len(views))
	for i, v := range views {
		result[i] = ToMedia(v)
	}
	return result
}

// ToEpisode converts an enriched episode.
func ToEpisode(v catalog.EpisodeView) Episode {
	return Episode{
		ID:            v.ID,
		MediaID:       v.MediaID,
		Season:        v.Season,
		Episode:       v.Number,
		Title:         v.Title,
		Description:   v.Description,
		CloudinaryURL: v.DirectURL,
		HLSURL:        v.HLSURL,
		ThumbnailURL:  lo.EmptyableToPtr(v.ThumbnailURL),
		CreatedAt:     v.CreatedAt,
	}
}

// ToEpisodeList converts a slice of enriched episodes. The result is never nil.
func ToEpisodeList(views []catalog.EpisodeView) []Episode {
	result := make([]Episode, len(views))
	for i, v := range views {
		result[i] = ToEpisode(v)
	}
	return result
}

// ToUploadResponse converts the outcome of a media upload.
func ToUploadResponse(r *catalog.UploadResult) UploadResponse {
	m := r.Media
	resp := UploadResponse{
		MediaID:       m.ID,
		VideoURL:      m.DirectURL,
		HLSURL:        r.HLSURL,
		ThumbnailURL:  lo.EmptyableToPtr(m.ThumbnailURL),
		BackdropURL:   lo.EmptyableToPtr(m.BackdropURL),
		Title:         m.Title,
		Description:   m.Description,
		Type:          string(m.Type),
		ReleaseYear:   m.ReleaseYear,
		Genre:         m.Genre,
		CloudinaryURL: m.DirectURL,
	}
	if r.Episode != nil {
		resp.EpisodeID = lo.ToPtr(r.Episode.ID)
	}
	return resp
}

// ToEpisodeUploadResponse converts the outcome of an episode upload.
func ToEpisodeUploadResponse(r *catalog.EpisodeUploadResult) EpisodeUploadResponse {
	ep := r.Episode
	return EpisodeUploadResponse{
		EpisodeID:    ep.ID,
		MediaID:      ep.MediaID,
		Season:       ep.Season,
		Episode:      ep.Number,
		Title:        ep.Title,
		Description:  ep.Description,
		VideoURL:     ep.DirectURL,
		HLSURL:       r.HLSURL,
		ThumbnailURL: lo.EmptyableToPtr(ep.ThumbnailURL),
	}
}

// ToRatingSummary converts a rating aggregate, rounding the average to one decimal.
func ToRatingSummary(s *database.RatingSummary) RatingSummary {
	return RatingSummary{
		Average:    math.Round(s.Average*10) / 10,
		Count:      s.Count,
		UserRating: s.UserRating,
	}
}

// ToComments converts comments with their preloaded authors.
func ToComments(comments []database.Comment) []Comment {
	return lo.Map(comments, func(c database.Comment, _ int) Comment {
		return Comment{
			ID:        c.ID,
			MediaID:   c.MediaID,
			UserID:    c.UserID,
			UserName:  c.User.Name,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
	})
}

// ToEpisodeInfo converts a provider episode.
func ToEpisodeInfo(ep metadata.Episode) EpisodeInfo {
	return EpisodeInfo{
		Season:   ep.Season,
		Episode:  ep.Number,
		Title:    ep.Title,
		Overview: ep.Overview,
		Still:    ep.StillURL,
		AirDate:  ep.AirDate,
	}
}
